// Package seeder fills the catalog with randomized sample languages, genres,
// authors, books and book instances for development and demos.
package seeder

import (
	"context"
	"fmt"
	"strings"

	"locallibrary/pkg/fakedata"
	"locallibrary/pkg/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	Languages = []string{"English", "French", "Spanish", "German", "Japanese", "Chinese", "Russian", "Italian"}
	Genres    = []string{"Science Fiction", "Fantasy", "Mystery", "Romance", "Horror", "Historical Fiction", "Thriller", "Biography"}
)

const (
	summaryLength = 200
	dueBackWindow = 30
)

type Counts struct {
	Genres    int
	Authors   int
	Books     int
	Instances int
}

var DefaultCounts = Counts{Genres: 5, Authors: 10, Books: 30, Instances: 60}

// Validate rejects negative counts.
func (c Counts) Validate() error {
	checks := []struct {
		name string
		n    int
	}{
		{"genres", c.Genres},
		{"authors", c.Authors},
		{"books", c.Books},
		{"instances", c.Instances},
	}
	for _, check := range checks {
		if check.n < 0 {
			return errors.Errorf("%s count must not be negative, got %d", check.name, check.n)
		}
	}
	return nil
}

// Report holds how many rows each step inserted.
type Report struct {
	Languages int
	Genres    int
	Authors   int
	Books     int
	Instances int
}

type Seeder struct {
	db     *gorm.DB
	gen    *fakedata.Generator
	logger *zap.Logger
}

func New(db *gorm.DB, gen *fakedata.Generator, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, gen: gen, logger: logger}
}

// Run clears the catalog and inserts fresh sample data in dependency order.
func (s *Seeder) Run(ctx context.Context, counts Counts) (Report, error) {
	var report Report

	if err := counts.Validate(); err != nil {
		return report, err
	}
	if err := s.Reset(ctx); err != nil {
		return report, err
	}

	var err error
	if report.Languages, err = s.CreateLanguages(ctx); err != nil {
		return report, err
	}
	if report.Genres, err = s.CreateGenres(ctx, counts.Genres); err != nil {
		return report, err
	}
	if report.Authors, err = s.CreateAuthors(ctx, counts.Authors); err != nil {
		return report, err
	}
	if report.Books, err = s.CreateBooks(ctx, counts.Books); err != nil {
		return report, err
	}
	if report.Instances, err = s.CreateBookInstances(ctx, counts.Instances); err != nil {
		return report, err
	}

	s.logger.Info("Sample data generated",
		zap.Int("languages", report.Languages),
		zap.Int("genres", report.Genres),
		zap.Int("authors", report.Authors),
		zap.Int("books", report.Books),
		zap.Int("instances", report.Instances))
	return report, nil
}

// Reset deletes every catalog row. Languages go first, then instances,
// genres, books and authors; references to a deleted language or author
// are nulled and genre links are dropped along with either side.
func (s *Seeder) Reset(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Book{}).Where("language_id IS NOT NULL").Update("language_id", nil).Error; err != nil {
			return errors.Wrap(err, "failed to detach languages")
		}
		if err := deleteAll(tx, &models.Language{}); err != nil {
			return errors.Wrap(err, "failed to delete languages")
		}
		if err := deleteAll(tx, &models.BookInstance{}); err != nil {
			return errors.Wrap(err, "failed to delete book instances")
		}
		if err := tx.Exec("DELETE FROM " + models.BookGenresTable).Error; err != nil {
			return errors.Wrap(err, "failed to delete book genres")
		}
		if err := deleteAll(tx, &models.Genre{}); err != nil {
			return errors.Wrap(err, "failed to delete genres")
		}
		if err := deleteAll(tx, &models.Book{}); err != nil {
			return errors.Wrap(err, "failed to delete books")
		}
		if err := deleteAll(tx, &models.Author{}); err != nil {
			return errors.Wrap(err, "failed to delete authors")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Catalog reset")
	return nil
}

func deleteAll(tx *gorm.DB, model interface{}) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
}

func (s *Seeder) CreateLanguages(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)
	for _, name := range Languages {
		if err := db.Create(&models.Language{Name: name}).Error; err != nil {
			return 0, errors.Wrapf(err, "failed to create language %q", name)
		}
	}
	s.logger.Info("Created languages", zap.Int("count", len(Languages)))
	return len(Languages), nil
}

// CreateGenres makes n draws from the genre list and inserts each draw whose
// name is not already stored, compared case-insensitively.
func (s *Seeder) CreateGenres(ctx context.Context, n int) (int, error) {
	n = max(n, 0)
	db := s.db.WithContext(ctx)
	created := 0
	for i := 0; i < n; i++ {
		name := Genres[s.gen.Intn(len(Genres))]

		var existing int64
		if err := db.Model(&models.Genre{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&existing).Error; err != nil {
			return created, errors.Wrapf(err, "failed to look up genre %q", name)
		}
		if existing > 0 {
			s.logger.Info(fmt.Sprintf("Genre '%s' already exists. Skipping.", name), zap.String("genre", name))
			continue
		}

		if err := db.Create(&models.Genre{Name: name}).Error; err != nil {
			return created, errors.Wrapf(err, "failed to create genre %q", name)
		}
		created++
	}
	s.logger.Info("Created genres", zap.Int("count", created), zap.Int("draws", n))
	return created, nil
}

// CreateAuthors inserts n authors. A date of death is drawn for roughly a
// third of them, independently of the date of birth.
func (s *Seeder) CreateAuthors(ctx context.Context, n int) (int, error) {
	n = max(n, 0)
	db := s.db.WithContext(ctx)
	for i := 0; i < n; i++ {
		born := s.gen.DateOfBirth(20, 90)
		author := models.Author{
			FirstName:   s.gen.FirstName(),
			LastName:    s.gen.LastName(),
			DateOfBirth: &born,
		}
		if s.gen.Chance(0.3) {
			died := s.gen.DateOfBirth(40, 100)
			author.DateOfDeath = &died
		}
		if err := db.Create(&author).Error; err != nil {
			return i, errors.Wrap(err, "failed to create author")
		}
	}
	s.logger.Info("Created authors", zap.Int("count", n))
	return n, nil
}

// CreateBooks inserts n books with a random author, language and one to
// three distinct genres. Nothing is inserted unless genres, authors and
// languages all exist.
func (s *Seeder) CreateBooks(ctx context.Context, n int) (int, error) {
	n = max(n, 0)
	db := s.db.WithContext(ctx)

	var genres []models.Genre
	if err := db.Find(&genres).Error; err != nil {
		return 0, errors.Wrap(err, "failed to load genres")
	}
	var authors []models.Author
	if err := db.Find(&authors).Error; err != nil {
		return 0, errors.Wrap(err, "failed to load authors")
	}
	var languages []models.Language
	if err := db.Find(&languages).Error; err != nil {
		return 0, errors.Wrap(err, "failed to load languages")
	}

	if len(genres) == 0 || len(authors) == 0 || len(languages) == 0 {
		s.logger.Error("Error: Ensure genres, authors, and languages exist before creating books.")
		return 0, nil
	}

	for i := 0; i < n; i++ {
		author := authors[s.gen.Intn(len(authors))]
		language := languages[s.gen.Intn(len(languages))]
		book := models.Book{
			Title:      s.gen.Sentence(3),
			Summary:    s.gen.Text(summaryLength),
			ISBN:       s.gen.ISBN13(),
			AuthorID:   &author.ID,
			LanguageID: &language.ID,
		}
		if err := db.Create(&book).Error; err != nil {
			return i, errors.Wrapf(err, "failed to create book %q", book.Title)
		}

		picked := s.gen.Sample(len(genres), s.gen.Between(1, 3))
		bookGenres := make([]models.Genre, 0, len(picked))
		for _, idx := range picked {
			bookGenres = append(bookGenres, genres[idx])
		}
		if err := db.Model(&book).Association("Genres").Replace(bookGenres); err != nil {
			return i, errors.Wrapf(err, "failed to assign genres to book %q", book.Title)
		}
	}
	s.logger.Info("Created books", zap.Int("count", n))
	return n, nil
}

// CreateBookInstances inserts n copies of randomly chosen books. About 70%
// of copies get a due date within the next 30 days.
func (s *Seeder) CreateBookInstances(ctx context.Context, n int) (int, error) {
	n = max(n, 0)
	db := s.db.WithContext(ctx)

	var books []models.Book
	if err := db.Find(&books).Error; err != nil {
		return 0, errors.Wrap(err, "failed to load books")
	}
	if len(books) == 0 {
		s.logger.Error("Error: Ensure books exist before creating book instances.")
		return 0, nil
	}

	for i := 0; i < n; i++ {
		instance := models.BookInstance{
			BookID:  books[s.gen.Intn(len(books))].ID,
			Imprint: s.gen.Company(),
		}
		if s.gen.Chance(0.7) {
			due := s.gen.FutureDate(dueBackWindow)
			instance.DueBack = &due
		}
		instance.Status = models.LoanStatuses[s.gen.Intn(len(models.LoanStatuses))]

		if err := db.Create(&instance).Error; err != nil {
			return i, errors.Wrap(err, "failed to create book instance")
		}
	}
	s.logger.Info("Created book instances", zap.Int("count", n))
	return n, nil
}
