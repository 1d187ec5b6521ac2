package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookGenresTable is the join table behind Book.Genres.
const BookGenresTable = "book_genres"

type LoanStatus string

const (
	StatusMaintenance LoanStatus = "m"
	StatusOnLoan      LoanStatus = "o"
	StatusAvailable   LoanStatus = "a"
	StatusReserved    LoanStatus = "r"
)

// LoanStatuses lists every status code in display order.
var LoanStatuses = []LoanStatus{StatusMaintenance, StatusOnLoan, StatusAvailable, StatusReserved}

func (s LoanStatus) Valid() bool {
	for _, status := range LoanStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s LoanStatus) Label() string {
	switch s {
	case StatusMaintenance:
		return "Maintenance"
	case StatusOnLoan:
		return "On loan"
	case StatusAvailable:
		return "Available"
	case StatusReserved:
		return "Reserved"
	}
	return "Unknown"
}

type Language struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Genre struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Author struct {
	ID          uint       `gorm:"primaryKey"`
	FirstName   string     `gorm:"size:100;not null"`
	LastName    string     `gorm:"size:100;not null"`
	DateOfBirth *time.Time `gorm:"type:date"`
	DateOfDeath *time.Time `gorm:"type:date"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Books []Book `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL"`
}

// FullName renders the author as "Last, First".
func (a Author) FullName() string {
	return a.LastName + ", " + a.FirstName
}

type Book struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"size:200;not null"`
	Summary    string `gorm:"size:1000;not null"`
	ISBN       string `gorm:"column:isbn;size:13;uniqueIndex;not null"`
	AuthorID   *uint
	LanguageID *uint
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Author    *Author        `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL"`
	Language  *Language      `gorm:"foreignKey:LanguageID;constraint:OnDelete:SET NULL"`
	Genres    []Genre        `gorm:"many2many:book_genres;constraint:OnDelete:CASCADE"`
	Instances []BookInstance `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
}

type BookInstance struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookID    uint       `gorm:"not null;index"`
	Imprint   string     `gorm:"size:200;not null"`
	DueBack   *time.Time `gorm:"type:date"`
	Status    LoanStatus `gorm:"size:1;not null;default:'m'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
}

func (bi *BookInstance) BeforeCreate(tx *gorm.DB) (err error) {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	return
}

// All returns every catalog model in migration order.
func All() []interface{} {
	return []interface{}{&Language{}, &Genre{}, &Author{}, &Book{}, &BookInstance{}}
}
