package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"locallibrary/pkg/config"
	"locallibrary/pkg/database"
	"locallibrary/pkg/fakedata"
	"locallibrary/pkg/models"
	"locallibrary/pkg/seeder"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	db     *gorm.DB
	logger = zap.NewNop()
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err = config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalog service...")

	ctx := context.Background()
	db, err = database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("Database migration failed", zap.Error(err))
	}

	if cfg.SeedOnStart {
		s := seeder.New(db, fakedata.New(cfg.Seed), logger)
		if _, err := s.Run(ctx, seeder.DefaultCounts); err != nil {
			logger.Fatal("Failed to seed catalog", zap.Error(err))
		}
	}

	server := setupRouter()

	logger.Info("Catalog service starting", zap.String("addr", cfg.HTTPAddr))
	if err := server.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func setupRouter() *gin.Engine {
	server := gin.Default()
	server.GET("/api/v1/catalog", getCatalogSummary)
	server.GET("/api/v1/books", getBooks)
	server.GET("/api/v1/books/:id", getBook)
	server.GET("/api/v1/authors", getAuthors)
	server.GET("/api/v1/authors/:id", getAuthor)
	server.GET("/api/v1/genres", getGenres)
	server.GET("/api/v1/languages", getLanguages)
	server.GET("/api/v1/bookinstances", getBookInstances)
	server.GET("/api/v1/bookinstances/:id", getBookInstance)
	server.GET("/manage/health", healthCheck)
	return server
}

func paging(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}
	return page, size
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func internalError(c *gin.Context, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func getCatalogSummary(c *gin.Context) {
	q := db.WithContext(c.Request.Context())
	counts := map[string]int64{}
	for key, query := range map[string]*gorm.DB{
		"books":              q.Model(&models.Book{}),
		"bookInstances":      q.Model(&models.BookInstance{}),
		"availableInstances": q.Model(&models.BookInstance{}).Where("status = ?", models.StatusAvailable),
		"authors":            q.Model(&models.Author{}),
		"genres":             q.Model(&models.Genre{}),
		"languages":          q.Model(&models.Language{}),
	} {
		var n int64
		if err := query.Count(&n).Error; err != nil {
			internalError(c, "Failed to count "+key, err)
			return
		}
		counts[key] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"numBooks":              counts["books"],
		"numInstances":          counts["bookInstances"],
		"numInstancesAvailable": counts["availableInstances"],
		"numAuthors":            counts["authors"],
		"numGenres":             counts["genres"],
		"numLanguages":          counts["languages"],
	})
}

func getBooks(c *gin.Context) {
	page, size := paging(c)
	title := strings.TrimSpace(c.Query("title"))

	query := db.WithContext(c.Request.Context()).Model(&models.Book{})
	if title != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%")
	}
	query = query.Session(&gorm.Session{})

	var totalelem int64
	if err := query.Count(&totalelem).Error; err != nil {
		internalError(c, "Failed to count books", err)
		return
	}

	var books []models.Book
	offset := (page - 1) * size
	err := query.Preload("Author").Order("title").Offset(offset).Limit(size).Find(&books).Error
	if err != nil {
		internalError(c, "Failed to list books", err)
		return
	}

	items := make([]gin.H, len(books))
	for i, b := range books {
		items[i] = gin.H{
			"id":     b.ID,
			"title":  b.Title,
			"isbn":   b.ISBN,
			"author": authorName(b.Author),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          page,
		"pageSize":      size,
		"totalElements": totalelem,
		"items":         items,
	})
}

func getBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var book models.Book
	err := db.WithContext(c.Request.Context()).
		Preload("Author").Preload("Language").Preload("Genres").Preload("Instances").
		First(&book, id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	genres := make([]string, len(book.Genres))
	for i, g := range book.Genres {
		genres[i] = g.Name
	}
	copies := make([]gin.H, len(book.Instances))
	for i, bi := range book.Instances {
		copies[i] = bookInstanceJSON(bi)
	}
	var language string
	if book.Language != nil {
		language = book.Language.Name
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       book.ID,
		"title":    book.Title,
		"summary":  book.Summary,
		"isbn":     book.ISBN,
		"author":   authorName(book.Author),
		"language": language,
		"genres":   genres,
		"copies":   copies,
	})
}

func getAuthors(c *gin.Context) {
	page, size := paging(c)
	query := db.WithContext(c.Request.Context()).Model(&models.Author{}).Session(&gorm.Session{})

	var totalelem int64
	if err := query.Count(&totalelem).Error; err != nil {
		internalError(c, "Failed to count authors", err)
		return
	}

	var authors []models.Author
	offset := (page - 1) * size
	if err := query.Order("last_name, first_name").Offset(offset).Limit(size).Find(&authors).Error; err != nil {
		internalError(c, "Failed to list authors", err)
		return
	}

	items := make([]gin.H, len(authors))
	for i, a := range authors {
		items[i] = authorJSON(a)
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          page,
		"pageSize":      size,
		"totalElements": totalelem,
		"items":         items,
	})
}

func getAuthor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var author models.Author
	if err := db.WithContext(c.Request.Context()).Preload("Books").First(&author, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	books := make([]gin.H, len(author.Books))
	for i, b := range author.Books {
		books[i] = gin.H{"id": b.ID, "title": b.Title, "isbn": b.ISBN}
	}
	resp := authorJSON(author)
	resp["books"] = books
	c.JSON(http.StatusOK, resp)
}

func getGenres(c *gin.Context) {
	var genres []models.Genre
	if err := db.WithContext(c.Request.Context()).Order("name").Find(&genres).Error; err != nil {
		internalError(c, "Failed to list genres", err)
		return
	}
	items := make([]gin.H, len(genres))
	for i, g := range genres {
		items[i] = gin.H{"id": g.ID, "name": g.Name}
	}
	c.JSON(http.StatusOK, items)
}

func getLanguages(c *gin.Context) {
	var languages []models.Language
	if err := db.WithContext(c.Request.Context()).Order("name").Find(&languages).Error; err != nil {
		internalError(c, "Failed to list languages", err)
		return
	}
	items := make([]gin.H, len(languages))
	for i, l := range languages {
		items[i] = gin.H{"id": l.ID, "name": l.Name}
	}
	c.JSON(http.StatusOK, items)
}

func getBookInstances(c *gin.Context) {
	page, size := paging(c)
	query := db.WithContext(c.Request.Context()).Model(&models.BookInstance{})

	if status := c.Query("status"); status != "" {
		if !models.LoanStatus(status).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", status)})
			return
		}
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var totalelem int64
	if err := query.Count(&totalelem).Error; err != nil {
		internalError(c, "Failed to count book instances", err)
		return
	}

	var instances []models.BookInstance
	offset := (page - 1) * size
	err := query.Preload("Book").Order("due_back").Order("id").Offset(offset).Limit(size).Find(&instances).Error
	if err != nil {
		internalError(c, "Failed to list book instances", err)
		return
	}

	items := make([]gin.H, len(instances))
	for i, bi := range instances {
		items[i] = bookInstanceJSON(bi)
		items[i]["title"] = bi.Book.Title
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          page,
		"pageSize":      size,
		"totalElements": totalelem,
		"items":         items,
	})
}

func getBookInstance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var instance models.BookInstance
	if err := db.WithContext(c.Request.Context()).Preload("Book").Where("id = ?", id).First(&instance).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book instance not found"})
		return
	}

	resp := bookInstanceJSON(instance)
	resp["title"] = instance.Book.Title
	c.JSON(http.StatusOK, resp)
}

func authorName(a *models.Author) string {
	if a == nil {
		return ""
	}
	return a.FullName()
}

func authorJSON(a models.Author) gin.H {
	return gin.H{
		"id":          a.ID,
		"firstName":   a.FirstName,
		"lastName":    a.LastName,
		"dateOfBirth": formatDate(a.DateOfBirth),
		"dateOfDeath": formatDate(a.DateOfDeath),
	}
}

func bookInstanceJSON(bi models.BookInstance) gin.H {
	return gin.H{
		"id":          bi.ID.String(),
		"bookId":      bi.BookID,
		"imprint":     bi.Imprint,
		"status":      string(bi.Status),
		"statusLabel": bi.Status.Label(),
		"dueBack":     formatDate(bi.DueBack),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func healthCheck(ctx *gin.Context) {
	sqlDB, err := db.DB()
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": "UP",
	})
}
