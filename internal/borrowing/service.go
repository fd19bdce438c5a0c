// internal/borrowing/service.go
package borrowing

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the borrowing service.
type Service interface {
	BorrowBook(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error)
	ReturnBook(ctx context.Context, loanID uuid.UUID) (*Loan, error)

	AvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error)
	BorrowedByUser(ctx context.Context, userID uuid.UUID) ([]Loan, error)
	AllBorrowed(ctx context.Context) ([]Loan, error)
	AllOverdue(ctx context.Context) ([]Loan, error)
	OutstandingFine(ctx context.Context, userID uuid.UUID) (int, error)

	// Sweep entry points.
	MarkOverdueLoans(ctx context.Context) (bool, error)
	DueTomorrowNotices(ctx context.Context) ([]Notice, error)
	OverdueNotices(ctx context.Context) ([]Notice, error)
}
