// internal/borrowing/implementation.go
package borrowing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"librarium/internal/api"
	"librarium/internal/notify"
)

// Limits holds the business rules enforced before a borrow is attempted.
type Limits struct {
	MaxActiveLoans     int
	MaxOutstandingFine int
	FinePerDay         int
}

// service implements the Service interface.
type service struct {
	repo     Repository
	notifier notify.Notifier
	limits   Limits
	logger   *slog.Logger
}

// NewService creates a new borrowing service instance.
func NewService(repo Repository, notifier notify.Notifier, limits Limits, logger *slog.Logger) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		limits:   limits,
		logger:   logger,
	}
}

// BorrowBook checks the lending rules in a fixed order (loan limit, duplicate
// book, availability, outstanding fine) and then runs the transactional borrow.
func (s *service) BorrowBook(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error) {
	active, err := s.repo.ActiveLoansByUser(ctx, userID)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while processing your borrow request. Please try again later.")
	}
	if len(active) >= s.limits.MaxActiveLoans {
		return nil, api.BadRequest("Borrowing limit reached. You cannot borrow more books.")
	}
	for _, loan := range active {
		if loan.BookID == bookID {
			return nil, api.BadRequest("This book is already borrowed by the user.")
		}
	}

	available, err := s.repo.AvailableCopies(ctx, bookID)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while processing your borrow request. Please try again later.")
	}
	if available == 0 {
		return nil, api.BadRequest("No available copies of this book right now.")
	}

	fine, err := s.repo.OutstandingFine(ctx, userID)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while processing your borrow request. Please try again later.")
	}
	if fine > s.limits.MaxOutstandingFine {
		return nil, api.BadRequest("Outstanding fine exceeds limit. Please repay your dues before borrowing more books.")
	}

	loan, err := s.repo.Borrow(ctx, bookID, userID)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while processing your borrow request. Please try again later.")
	}

	s.logger.Info("book borrowed", "loan_id", loan.ID, "book_id", bookID, "user_id", userID)
	s.sendLoanNotification(ctx, loan, notify.EventBookIssued)

	return loan, nil
}

// ReturnBook runs the transactional return and sends the returned notice with
// the computed fine.
func (s *service) ReturnBook(ctx context.Context, loanID uuid.UUID) (*Loan, error) {
	loan, err := s.repo.Return(ctx, loanID)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while processing your return request. Please try again later.")
	}

	s.logger.Info("book returned", "loan_id", loan.ID, "fine", loan.FineAmount)
	s.sendLoanNotification(ctx, loan, notify.EventBookReturned)

	return loan, nil
}

// sendLoanNotification is best-effort: a failed send is logged and skipped,
// never propagated into the loan transaction's outcome.
func (s *service) sendLoanNotification(ctx context.Context, loan *Loan, event notify.EventType) {
	notice, err := s.repo.NoticeForLoan(ctx, loan.ID)
	if err != nil {
		s.logger.Error("failed to resolve loan notice", "loan_id", loan.ID, "error", err)
		return
	}

	msg := notify.Message{
		Event:      event,
		Recipient:  notice.UserEmail,
		UserName:   notice.UserName,
		BookTitle:  notice.BookTitle,
		BorrowDate: notice.BorrowDate,
		DueDate:    notice.DueDate,
		FineAmount: loan.FineAmount,
		FinePerDay: s.limits.FinePerDay,
	}
	if loan.ReturnDate != nil {
		msg.ReturnDate = *loan.ReturnDate
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send notification", "event", string(event), "loan_id", loan.ID, "error", err)
	}
}

func (s *service) AvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error) {
	count, err := s.repo.AvailableCopies(ctx, bookID)
	if err != nil {
		return 0, s.wrap(err, "Could not fetch available copies.")
	}
	return count, nil
}

func (s *service) BorrowedByUser(ctx context.Context, userID uuid.UUID) ([]Loan, error) {
	loans, err := s.repo.ActiveLoansByUser(ctx, userID)
	if err != nil {
		return nil, s.wrap(err, "Could not fetch user's borrowed books.")
	}
	return loans, nil
}

func (s *service) AllBorrowed(ctx context.Context) ([]Loan, error) {
	loans, err := s.repo.ActiveLoans(ctx)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while fetching borrowed books.")
	}
	return loans, nil
}

func (s *service) AllOverdue(ctx context.Context) ([]Loan, error) {
	loans, err := s.repo.OverdueLoans(ctx)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while fetching overdue books.")
	}
	return loans, nil
}

func (s *service) OutstandingFine(ctx context.Context, userID uuid.UUID) (int, error) {
	fine, err := s.repo.OutstandingFine(ctx, userID)
	if err != nil {
		return 0, s.wrap(err, "Could not fetch remaining fine.")
	}
	return fine, nil
}

func (s *service) MarkOverdueLoans(ctx context.Context) (bool, error) {
	changed, err := s.repo.MarkOverdue(ctx)
	if err != nil {
		return false, s.wrap(err, "An error occurred while updating overdue book statuses.")
	}
	return changed, nil
}

func (s *service) DueTomorrowNotices(ctx context.Context) ([]Notice, error) {
	notices, err := s.repo.DueTomorrowNotices(ctx)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while fetching borrowings due tomorrow.")
	}
	return notices, nil
}

func (s *service) OverdueNotices(ctx context.Context) ([]Notice, error) {
	notices, err := s.repo.OverdueNotices(ctx)
	if err != nil {
		return nil, s.wrap(err, "An error occurred while fetching overdue borrowings.")
	}
	return notices, nil
}

// wrap remaps repository faults into business errors: recognized sentinels get
// a specific status, anything else becomes a generic retryable 500.
func (s *service) wrap(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrBookNotFound):
		return api.NotFound("Book not found")
	case errors.Is(err, ErrLoanNotFound):
		return api.NotFound("Borrowing record not found.")
	case errors.Is(err, ErrAlreadyReturned):
		return api.BadRequest("This book has already been returned.")
	case errors.Is(err, ErrAlreadyBorrowed):
		return api.BadRequest("This book is already borrowed by the user.")
	case errors.Is(err, ErrNoCopiesAvailable):
		return api.BadRequest("No available copies of this book right now.")
	case errors.Is(err, ErrConcurrencyConflict):
		return api.Conflict("The book was modified by another request. Please try again.")
	default:
		s.logger.Error("repository failure", "error", err)
		return api.Internal(fallback, err)
	}
}
