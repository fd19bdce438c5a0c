// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Book is a catalog entry. AvailableCopies always stays within
// [0, TotalCopies]; the Version column is the optimistic concurrency token
// compared on every availability update.
type Book struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	ISBN            string    `json:"isbn" db:"isbn"`
	AuthorID        uuid.UUID `json:"author_id" db:"author_id"`
	CategoryID      uuid.UUID `json:"category_id" db:"category_id"`
	PublishedYear   int       `json:"published_year" db:"published_year"`
	TotalCopies     int       `json:"total_copies" db:"total_copies"`
	AvailableCopies int       `json:"available_copies" db:"available_copies"`
	Version         int       `json:"version" db:"version"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// BookCopy is one physical copy of a book.
type BookCopy struct {
	ID          uuid.UUID `json:"id" db:"id"`
	BookID      uuid.UUID `json:"book_id" db:"book_id"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
}

type Author struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BookInput carries the caller-supplied fields for creating or updating a book.
type BookInput struct {
	Title         string    `json:"title"`
	ISBN          string    `json:"isbn"`
	AuthorID      uuid.UUID `json:"author_id"`
	CategoryID    uuid.UUID `json:"category_id"`
	PublishedYear int       `json:"published_year"`
	TotalCopies   int       `json:"total_copies"`
}
