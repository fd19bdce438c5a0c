// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"librarium/internal/api"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB, logger *slog.Logger) Service {
	return &service{db: db, logger: logger}
}

// AddBook creates a book together with one copy row per physical copy.
func (s *service) AddBook(ctx context.Context, input BookInput) (*Book, error) {
	if input.Title == "" || input.ISBN == "" {
		return nil, api.BadRequest("Title and ISBN are required")
	}
	if input.TotalCopies < 0 {
		return nil, api.BadRequest("Total copies cannot be negative")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, api.Internal("Could not add the book.", err)
	}
	defer tx.Rollback()

	book := &Book{
		ID:              uuid.New(),
		Title:           input.Title,
		ISBN:            input.ISBN,
		AuthorID:        input.AuthorID,
		CategoryID:      input.CategoryID,
		PublishedYear:   input.PublishedYear,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		Version:         1,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO books (id, title, isbn, author_id, category_id, published_year, total_copies, available_copies, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		book.ID, book.Title, book.ISBN, book.AuthorID, book.CategoryID,
		book.PublishedYear, book.TotalCopies, book.AvailableCopies, book.Version)
	if err != nil {
		return nil, s.mapWriteError(err, "A book with this ISBN already exists", "Author or category does not exist")
	}

	for i := 0; i < input.TotalCopies; i++ {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_copies (id, book_id, is_available) VALUES ($1, $2, true)`,
			uuid.New(), book.ID); err != nil {
			return nil, api.Internal("Could not add the book.", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, api.Internal("Could not add the book.", err)
	}

	s.logger.Info("book added", "book_id", book.ID, "isbn", book.ISBN, "copies", book.TotalCopies)
	return book, nil
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	var book Book
	err := s.db.GetContext(ctx, &book, `SELECT * FROM books WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api.NotFound("Book not found")
	}
	if err != nil {
		return nil, api.Internal("Could not fetch the book.", err)
	}
	return &book, nil
}

func (s *service) ListBooks(ctx context.Context) ([]Book, error) {
	books := []Book{}
	if err := s.db.SelectContext(ctx, &books, `SELECT * FROM books ORDER BY title`); err != nil {
		return nil, api.Internal("Could not fetch books.", err)
	}
	return books, nil
}

// UpdateBook changes metadata only; copy counts move through AddCopy and
// RemoveCopy so they stay consistent with the copy rows.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, input BookInput) (*Book, error) {
	if input.Title == "" || input.ISBN == "" {
		return nil, api.BadRequest("Title and ISBN are required")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE books
		 SET title = $1, isbn = $2, author_id = $3, category_id = $4, published_year = $5, updated_at = now()
		 WHERE id = $6`,
		input.Title, input.ISBN, input.AuthorID, input.CategoryID, input.PublishedYear, id)
	if err != nil {
		return nil, s.mapWriteError(err, "A book with this ISBN already exists", "Author or category does not exist")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, api.NotFound("Book not found")
	}

	return s.GetBook(ctx, id)
}

// RemoveBook deletes a book and its copies. Refused while any copy is lent
// out, or when loan history still references the book.
func (s *service) RemoveBook(ctx context.Context, id uuid.UUID) error {
	var lentOut bool
	err := s.db.GetContext(ctx, &lentOut,
		`SELECT EXISTS (SELECT 1 FROM loans WHERE book_id = $1 AND status IN ('borrowed', 'overdue'))`, id)
	if err != nil {
		return api.Internal("Could not remove the book.", err)
	}
	if lentOut {
		return api.BadRequest("Cannot remove a book while copies are lent out")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return s.mapWriteError(err, "", "Cannot remove a book with borrowing history")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.NotFound("Book not found")
	}

	s.logger.Info("book removed", "book_id", id)
	return nil
}

// AddCopy registers one more physical copy and bumps the book's totals under
// the version token.
func (s *service) AddCopy(ctx context.Context, bookID uuid.UUID) (*BookCopy, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, api.Internal("Could not add the copy.", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.GetContext(ctx, &version, `SELECT version FROM books WHERE id = $1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api.NotFound("Book not found")
	}
	if err != nil {
		return nil, api.Internal("Could not add the copy.", err)
	}

	copy := &BookCopy{ID: uuid.New(), BookID: bookID, IsAvailable: true}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO book_copies (id, book_id, is_available) VALUES ($1, $2, true)`,
		copy.ID, copy.BookID); err != nil {
		return nil, api.Internal("Could not add the copy.", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET total_copies = total_copies + 1, available_copies = available_copies + 1,
		     version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $2`, bookID, version)
	if err != nil {
		return nil, api.Internal("Could not add the copy.", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, api.Conflict("The book was modified by another request. Please try again.")
	}

	if err := tx.Commit(); err != nil {
		return nil, api.Internal("Could not add the copy.", err)
	}

	return copy, nil
}

// RemoveCopy deletes one physical copy and decrements the book's totals.
// Never removes a copy that is currently lent out.
func (s *service) RemoveCopy(ctx context.Context, copyID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return api.Internal("Could not remove the copy.", err)
	}
	defer tx.Rollback()

	var copy BookCopy
	err = tx.GetContext(ctx, &copy,
		`SELECT id, book_id, is_available FROM book_copies WHERE id = $1`, copyID)
	if errors.Is(err, sql.ErrNoRows) {
		return api.NotFound("Book copy not found")
	}
	if err != nil {
		return api.Internal("Could not remove the copy.", err)
	}
	if !copy.IsAvailable {
		return api.BadRequest("Cannot remove a copy that is currently lent out")
	}

	var version int
	if err := tx.GetContext(ctx, &version, `SELECT version FROM books WHERE id = $1`, copy.BookID); err != nil {
		return api.Internal("Could not remove the copy.", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_copies WHERE id = $1`, copyID); err != nil {
		return s.mapWriteError(err, "", "Cannot remove a copy with borrowing history")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET total_copies = total_copies - 1, available_copies = available_copies - 1,
		     version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $2`, copy.BookID, version)
	if err != nil {
		return api.Internal("Could not remove the copy.", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.Conflict("The book was modified by another request. Please try again.")
	}

	if err := tx.Commit(); err != nil {
		return api.Internal("Could not remove the copy.", err)
	}

	return nil
}

func (s *service) ListCopies(ctx context.Context, bookID uuid.UUID) ([]BookCopy, error) {
	copies := []BookCopy{}
	err := s.db.SelectContext(ctx, &copies,
		`SELECT id, book_id, is_available FROM book_copies WHERE book_id = $1`, bookID)
	if err != nil {
		return nil, api.Internal("Could not fetch copies.", err)
	}
	return copies, nil
}

func (s *service) AddAuthor(ctx context.Context, name string) (*Author, error) {
	if name == "" {
		return nil, api.BadRequest("Author name is required")
	}

	author := &Author{ID: uuid.New(), Name: name}
	_, err := s.db.ExecContext(ctx, `INSERT INTO authors (id, name) VALUES ($1, $2)`, author.ID, author.Name)
	if err != nil {
		return nil, api.Internal("Could not add the author.", err)
	}
	return author, nil
}

func (s *service) ListAuthors(ctx context.Context) ([]Author, error) {
	authors := []Author{}
	if err := s.db.SelectContext(ctx, &authors, `SELECT * FROM authors ORDER BY name`); err != nil {
		return nil, api.Internal("Could not fetch authors.", err)
	}
	return authors, nil
}

func (s *service) UpdateAuthor(ctx context.Context, id uuid.UUID, name string) (*Author, error) {
	if name == "" {
		return nil, api.BadRequest("Author name is required")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE authors SET name = $1, updated_at = now() WHERE id = $2`, name, id)
	if err != nil {
		return nil, api.Internal("Could not update the author.", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, api.NotFound("Author not found")
	}
	return &Author{ID: id, Name: name}, nil
}

func (s *service) RemoveAuthor(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return s.mapWriteError(err, "", "Cannot remove an author that still has books")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.NotFound("Author not found")
	}
	return nil
}

func (s *service) AddCategory(ctx context.Context, name string) (*Category, error) {
	if name == "" {
		return nil, api.BadRequest("Category name is required")
	}

	category := &Category{ID: uuid.New(), Name: name}
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, category.ID, category.Name)
	if err != nil {
		return nil, s.mapWriteError(err, "A category with this name already exists", "")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if err := s.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name`); err != nil {
		return nil, api.Internal("Could not fetch categories.", err)
	}
	return categories, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*Category, error) {
	if name == "" {
		return nil, api.BadRequest("Category name is required")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = $1, updated_at = now() WHERE id = $2`, name, id)
	if err != nil {
		return nil, s.mapWriteError(err, "A category with this name already exists", "")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, api.NotFound("Category not found")
	}
	return &Category{ID: id, Name: name}, nil
}

func (s *service) RemoveCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return s.mapWriteError(err, "", "Cannot remove a category that still has books")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.NotFound("Category not found")
	}
	return nil
}

// mapWriteError turns Postgres constraint violations into business errors.
func (s *service) mapWriteError(err error, uniqueMsg, fkMsg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if uniqueMsg != "" {
				return api.BadRequest(uniqueMsg)
			}
		case pqForeignKeyViolation:
			if fkMsg != "" {
				return api.BadRequest(fkMsg)
			}
		}
	}
	s.logger.Error("catalog write failed", "error", err)
	return api.Internal("An unexpected error occurred", fmt.Errorf("catalog write: %w", err))
}
