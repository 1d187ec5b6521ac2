package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"locallibrary/pkg/config"
	"locallibrary/pkg/database"
	"locallibrary/pkg/fakedata"
	"locallibrary/pkg/models"
	"locallibrary/pkg/seeder"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.Database{Driver: config.DriverSQLite, Path: ":memory:", ConnectRetries: 1}
	testDB, err := database.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), testDB))
	t.Cleanup(func() { _ = database.Close(testDB) })
	return testDB
}

type fixture struct {
	author   models.Author
	book     models.Book
	genre    models.Genre
	language models.Language
	copies   []models.BookInstance
}

func seedFixture(t *testing.T, testDB *gorm.DB) fixture {
	t.Helper()
	born := time.Date(1920, time.January, 2, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	f := fixture{
		author:   models.Author{FirstName: "Isaac", LastName: "Asimov", DateOfBirth: &born},
		genre:    models.Genre{Name: "Science Fiction"},
		language: models.Language{Name: "English"},
	}
	require.NoError(t, testDB.Create(&f.author).Error)
	require.NoError(t, testDB.Create(&f.genre).Error)
	require.NoError(t, testDB.Create(&f.language).Error)

	f.book = models.Book{
		Title:      "Foundation.",
		Summary:    "Psychohistory.",
		ISBN:       "9780306406157",
		AuthorID:   &f.author.ID,
		LanguageID: &f.language.ID,
	}
	require.NoError(t, testDB.Create(&f.book).Error)
	require.NoError(t, testDB.Model(&f.book).Association("Genres").Replace([]models.Genre{f.genre}))

	f.copies = []models.BookInstance{
		{BookID: f.book.ID, Imprint: "Gnome Press", Status: models.StatusAvailable},
		{BookID: f.book.ID, Imprint: "Gnome Press", Status: models.StatusOnLoan, DueBack: &due},
	}
	require.NoError(t, testDB.Create(&f.copies).Error)
	return f
}

func perform(t *testing.T, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	setupRouter().ServeHTTP(w, httptest.NewRequest("GET", target, nil))

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestGetCatalogSummary(t *testing.T) {
	db = setupTestDB(t)
	s := seeder.New(db, fakedata.New(1), zap.NewNop())
	report, err := s.Run(context.Background(), seeder.DefaultCounts)
	require.NoError(t, err)

	w, response := perform(t, "/api/v1/catalog")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, report.Books, response["numBooks"])
	assert.EqualValues(t, report.Instances, response["numInstances"])
	assert.EqualValues(t, report.Authors, response["numAuthors"])
	assert.EqualValues(t, report.Genres, response["numGenres"])
	assert.EqualValues(t, report.Languages, response["numLanguages"])
	assert.LessOrEqual(t, response["numInstancesAvailable"].(float64), float64(report.Instances))
}

func TestGetBooks(t *testing.T) {
	db = setupTestDB(t)
	seedFixture(t, db)

	w, response := perform(t, "/api/v1/books?page=1&size=10")
	assert.Equal(t, http.StatusOK, w.Code)
	items := response["items"].([]interface{})
	require.Equal(t, 1, len(items))
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Foundation.", item["title"])
	assert.Equal(t, "Asimov, Isaac", item["author"])

	w, response = perform(t, "/api/v1/books?title=FOUND")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, response["totalElements"])

	w, response = perform(t, "/api/v1/books?title=robots")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, response["totalElements"])
}

func TestGetBooksPaging(t *testing.T) {
	db = setupTestDB(t)
	s := seeder.New(db, fakedata.New(3), zap.NewNop())
	_, err := s.Run(context.Background(), seeder.DefaultCounts)
	require.NoError(t, err)

	w, response := perform(t, "/api/v1/books?page=3&size=12")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 30, response["totalElements"])
	assert.EqualValues(t, 12, response["pageSize"])
	assert.Len(t, response["items"], 6)
}

func TestGetBook(t *testing.T) {
	db = setupTestDB(t)
	f := seedFixture(t, db)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/books/1", nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: "1"}}

	getBook(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.EqualValues(t, f.book.ID, response["id"])
	assert.Equal(t, "English", response["language"])
	assert.Equal(t, []interface{}{"Science Fiction"}, response["genres"])
	assert.Len(t, response["copies"], 2)
}

func TestGetBookNotFound(t *testing.T) {
	db = setupTestDB(t)

	w, _ := perform(t, "/api/v1/books/42")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = perform(t, "/api/v1/books/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAuthors(t *testing.T) {
	db = setupTestDB(t)
	f := seedFixture(t, db)

	w, response := perform(t, "/api/v1/authors")
	assert.Equal(t, http.StatusOK, w.Code)
	items := response["items"].([]interface{})
	require.Len(t, items, 1)
	author := items[0].(map[string]interface{})
	assert.Equal(t, "Asimov", author["lastName"])
	assert.Equal(t, "1920-01-02", author["dateOfBirth"])
	assert.Nil(t, author["dateOfDeath"])

	w, response = perform(t, "/api/v1/authors/1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, f.author.ID, response["id"])
	assert.Len(t, response["books"], 1)
}

func TestGetGenresAndLanguages(t *testing.T) {
	db = setupTestDB(t)
	seedFixture(t, db)

	for _, target := range []string{"/api/v1/genres", "/api/v1/languages"} {
		w := httptest.NewRecorder()
		setupRouter().ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var items []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		assert.Len(t, items, 1)
	}
}

func TestGetBookInstances(t *testing.T) {
	db = setupTestDB(t)
	f := seedFixture(t, db)

	w, response := perform(t, "/api/v1/bookinstances")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, response["totalElements"])

	w, response = perform(t, "/api/v1/bookinstances?status=o")
	assert.Equal(t, http.StatusOK, w.Code)
	items := response["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, f.copies[1].ID.String(), item["id"])
	assert.Equal(t, "On loan", item["statusLabel"])
	assert.Equal(t, "2024-04-01", item["dueBack"])
	assert.Equal(t, "Foundation.", item["title"])

	w, _ = perform(t, "/api/v1/bookinstances?status=lost")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBookInstance(t *testing.T) {
	db = setupTestDB(t)
	f := seedFixture(t, db)

	w, response := perform(t, "/api/v1/bookinstances/"+f.copies[0].ID.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a", response["status"])
	assert.Nil(t, response["dueBack"])

	w, _ = perform(t, "/api/v1/bookinstances/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = perform(t, "/api/v1/bookinstances/6f1c2f3e-8a52-4c5e-9a55-0f9c7a1f0b11")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthCheck(t *testing.T) {
	db = setupTestDB(t)

	w, response := perform(t, "/manage/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", response["status"])
}
