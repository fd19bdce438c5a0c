// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, input BookInput) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context) ([]Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input BookInput) (*Book, error)
	RemoveBook(ctx context.Context, id uuid.UUID) error

	AddCopy(ctx context.Context, bookID uuid.UUID) (*BookCopy, error)
	RemoveCopy(ctx context.Context, copyID uuid.UUID) error
	ListCopies(ctx context.Context, bookID uuid.UUID) ([]BookCopy, error)

	AddAuthor(ctx context.Context, name string) (*Author, error)
	ListAuthors(ctx context.Context) ([]Author, error)
	UpdateAuthor(ctx context.Context, id uuid.UUID, name string) (*Author, error)
	RemoveAuthor(ctx context.Context, id uuid.UUID) error

	AddCategory(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*Category, error)
	RemoveCategory(ctx context.Context, id uuid.UUID) error
}
