// internal/borrowing/domain.go
package borrowing

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a loan. A loan moves borrowed -> returned,
// or borrowed -> overdue -> returned; returned is terminal. Overdue is only
// ever set by the sweep.
type Status string

const (
	StatusBorrowed Status = "borrowed"
	StatusReturned Status = "returned"
	StatusOverdue  Status = "overdue"
)

// Active reports whether the loan still holds a copy.
func (s Status) Active() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// Loan represents one user's custody of one book copy from borrow to return.
type Loan struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	BookID     uuid.UUID  `json:"book_id" db:"book_id"`
	CopyID     uuid.UUID  `json:"copy_id" db:"copy_id"`
	BorrowDate time.Time  `json:"borrow_date" db:"borrow_date"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" db:"return_date"`
	FineAmount int        `json:"fine_amount" db:"fine_amount"`
	Status     Status     `json:"status" db:"status"`
}

// Notice is the projection of a loan used for notifications: the loan joined
// with the borrower's contact details and the book title.
type Notice struct {
	LoanID     uuid.UUID `json:"loan_id" db:"loan_id"`
	UserName   string    `json:"user_name" db:"user_name"`
	UserEmail  string    `json:"user_email" db:"user_email"`
	BookTitle  string    `json:"book_title" db:"book_title"`
	BorrowDate time.Time `json:"borrow_date" db:"borrow_date"`
	DueDate    time.Time `json:"due_date" db:"due_date"`
	FineAmount int       `json:"fine_amount" db:"fine_amount"`
}
