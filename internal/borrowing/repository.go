// internal/borrowing/repository.go
package borrowing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrBookNotFound        = errors.New("book not found")
	ErrLoanNotFound        = errors.New("borrowed record not found")
	ErrNoCopiesAvailable   = errors.New("no available copies left to borrow")
	ErrAlreadyBorrowed     = errors.New("book is already borrowed by the user")
	ErrAlreadyReturned     = errors.New("book has already been returned")
	ErrConcurrencyConflict = errors.New("concurrency conflict: book was modified by another request")
)

// Repository executes the atomic state transitions for loan records. Every
// mutation runs in one transaction: either all effects commit or none do.
type Repository interface {
	// Borrow claims an available copy of the book for the user and creates
	// the loan record. Fails with ErrBookNotFound, ErrNoCopiesAvailable,
	// ErrAlreadyBorrowed or ErrConcurrencyConflict.
	Borrow(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error)

	// Return releases the copy held by the loan, computes the fine and marks
	// the loan returned. Fails with ErrLoanNotFound or ErrAlreadyReturned; a
	// second return attempt must fail, never silently succeed.
	Return(ctx context.Context, loanID uuid.UUID) (*Loan, error)

	AvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error)
	ActiveLoansByUser(ctx context.Context, userID uuid.UUID) ([]Loan, error)
	ActiveLoans(ctx context.Context) ([]Loan, error)
	OverdueLoans(ctx context.Context) ([]Loan, error)

	// OutstandingFine sums fine_amount over the user's overdue loans.
	OutstandingFine(ctx context.Context, userID uuid.UUID) (int, error)

	// NoticeForLoan resolves the borrower and book details for one loan.
	NoticeForLoan(ctx context.Context, loanID uuid.UUID) (*Notice, error)
	DueTomorrowNotices(ctx context.Context) ([]Notice, error)
	OverdueNotices(ctx context.Context) ([]Notice, error)

	// MarkOverdue moves every borrowed loan past its due date to overdue and
	// reports whether any row changed. Idempotent.
	MarkOverdue(ctx context.Context) (bool, error)
}
