// internal/borrowing/implementation_test.go
package borrowing

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/api"
	"librarium/internal/notify"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	activeLoans  []Loan
	available    int
	fine         int
	bookMissing  bool
	borrowErr    error
	returnErr    error
	borrowCalled bool

	loanPeriodDays int
	finePerDay     int
}

func (f *fakeRepository) Borrow(_ context.Context, bookID, userID uuid.UUID) (*Loan, error) {
	f.borrowCalled = true
	if f.borrowErr != nil {
		return nil, f.borrowErr
	}

	borrowDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &Loan{
		ID:         uuid.New(),
		UserID:     userID,
		BookID:     bookID,
		CopyID:     uuid.New(),
		BorrowDate: borrowDate,
		DueDate:    borrowDate.AddDate(0, 0, f.loanPeriodDays),
		Status:     StatusBorrowed,
	}, nil
}

func (f *fakeRepository) Return(_ context.Context, loanID uuid.UUID) (*Loan, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}

	returned := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return &Loan{
		ID:         loanID,
		UserID:     uuid.New(),
		BookID:     uuid.New(),
		CopyID:     uuid.New(),
		BorrowDate: due.AddDate(0, 0, -f.loanPeriodDays),
		DueDate:    due,
		ReturnDate: &returned,
		FineAmount: FineCalculator{PerDay: f.finePerDay}.Fine(due, returned),
		Status:     StatusReturned,
	}, nil
}

func (f *fakeRepository) AvailableCopies(context.Context, uuid.UUID) (int, error) {
	if f.bookMissing {
		return 0, ErrBookNotFound
	}
	return f.available, nil
}

func (f *fakeRepository) ActiveLoansByUser(context.Context, uuid.UUID) ([]Loan, error) {
	return f.activeLoans, nil
}

func (f *fakeRepository) ActiveLoans(context.Context) ([]Loan, error)  { return f.activeLoans, nil }
func (f *fakeRepository) OverdueLoans(context.Context) ([]Loan, error) { return nil, nil }

func (f *fakeRepository) OutstandingFine(context.Context, uuid.UUID) (int, error) {
	return f.fine, nil
}

func (f *fakeRepository) NoticeForLoan(_ context.Context, loanID uuid.UUID) (*Notice, error) {
	return &Notice{
		LoanID:    loanID,
		UserName:  "Jane Reader",
		UserEmail: "jane@example.com",
		BookTitle: "Pride and Prejudice",
	}, nil
}

func (f *fakeRepository) DueTomorrowNotices(context.Context) ([]Notice, error) { return nil, nil }
func (f *fakeRepository) OverdueNotices(context.Context) ([]Notice, error)     { return nil, nil }
func (f *fakeRepository) MarkOverdue(context.Context) (bool, error)            { return false, nil }

// fakeNotifier records sends and can be told to fail.
type fakeNotifier struct {
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testLimits() Limits {
	return Limits{MaxActiveLoans: 3, MaxOutstandingFine: 100, FinePerDay: 5}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func activeLoansFor(userID uuid.UUID, n int) []Loan {
	loans := make([]Loan, n)
	for i := range loans {
		loans[i] = Loan{ID: uuid.New(), UserID: userID, BookID: uuid.New(), Status: StatusBorrowed}
	}
	return loans
}

func TestBorrowBookRuleOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	bookID := uuid.New()

	t.Run("loan limit wins regardless of availability", func(t *testing.T) {
		// Everything else would also fail; the limit must be reported first.
		repo := &fakeRepository{activeLoans: activeLoansFor(userID, 3), available: 0, fine: 500}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.BorrowBook(ctx, bookID, userID)
		require.Error(t, err)
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Equal(t, 400, e.Status)
		assert.Contains(t, e.Message, "Borrowing limit reached")
		assert.False(t, repo.borrowCalled)
	})

	t.Run("duplicate book reported before availability", func(t *testing.T) {
		loans := activeLoansFor(userID, 1)
		loans[0].BookID = bookID
		repo := &fakeRepository{activeLoans: loans, available: 0}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.BorrowBook(ctx, bookID, userID)
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "already borrowed")
	})

	t.Run("no available copies", func(t *testing.T) {
		repo := &fakeRepository{available: 0, fine: 500}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.BorrowBook(ctx, bookID, userID)
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Equal(t, 400, e.Status)
		assert.Contains(t, e.Message, "No available copies")
	})

	t.Run("outstanding fine above the limit", func(t *testing.T) {
		repo := &fakeRepository{available: 2, fine: 101}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.BorrowBook(ctx, bookID, userID)
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "Outstanding fine exceeds limit")
		assert.False(t, repo.borrowCalled)
	})

	t.Run("fine exactly at the limit is allowed", func(t *testing.T) {
		repo := &fakeRepository{available: 2, fine: 100, loanPeriodDays: 14}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.BorrowBook(ctx, bookID, userID)
		require.NoError(t, err)
	})

	t.Run("missing book maps to not found", func(t *testing.T) {
		repo := &fakeRepository{bookMissing: true}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.BorrowBook(ctx, bookID, userID)
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Equal(t, 404, e.Status)
	})
}

func TestBorrowBookSuccess(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	bookID := uuid.New()

	repo := &fakeRepository{available: 2, loanPeriodDays: 14}
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier, testLimits(), discardLogger())

	loan, err := svc.BorrowBook(ctx, bookID, userID)
	require.NoError(t, err)

	assert.Equal(t, bookID, loan.BookID)
	assert.Equal(t, userID, loan.UserID)
	assert.Equal(t, StatusBorrowed, loan.Status)
	assert.Equal(t, loan.BorrowDate.AddDate(0, 0, 14), loan.DueDate)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.EventBookIssued, notifier.sent[0].Event)
	assert.Equal(t, "jane@example.com", notifier.sent[0].Recipient)
}

func TestBorrowBookNotifierFailureDoesNotFailBorrow(t *testing.T) {
	repo := &fakeRepository{available: 1, loanPeriodDays: 14}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := NewService(repo, notifier, testLimits(), discardLogger())

	loan, err := svc.BorrowBook(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, loan)
}

func TestBorrowBookConflictMapsToRetryable(t *testing.T) {
	repo := &fakeRepository{available: 1, borrowErr: ErrConcurrencyConflict}
	svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

	_, err := svc.BorrowBook(context.Background(), uuid.New(), uuid.New())
	e := api.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, 409, e.Status)
}

func TestReturnBook(t *testing.T) {
	ctx := context.Background()

	t.Run("success sends returned notification with fine", func(t *testing.T) {
		repo := &fakeRepository{loanPeriodDays: 14, finePerDay: 5}
		notifier := &fakeNotifier{}
		svc := NewService(repo, notifier, testLimits(), discardLogger())

		loan, err := svc.ReturnBook(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, StatusReturned, loan.Status)
		assert.Equal(t, 25, loan.FineAmount) // 5 days late at 5 per day

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, notify.EventBookReturned, notifier.sent[0].Event)
		assert.Equal(t, 25, notifier.sent[0].FineAmount)
	})

	t.Run("unknown loan maps to not found", func(t *testing.T) {
		repo := &fakeRepository{returnErr: ErrLoanNotFound}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.ReturnBook(ctx, uuid.New())
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Equal(t, 404, e.Status)
	})

	t.Run("second return fails instead of silently succeeding", func(t *testing.T) {
		repo := &fakeRepository{returnErr: ErrAlreadyReturned}
		notifier := &fakeNotifier{}
		svc := NewService(repo, notifier, testLimits(), discardLogger())

		_, err := svc.ReturnBook(ctx, uuid.New())
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Equal(t, 400, e.Status)
		assert.Contains(t, e.Message, "already been returned")
		assert.Empty(t, notifier.sent)
	})

	t.Run("unrecognized repository fault becomes a generic 500", func(t *testing.T) {
		repo := &fakeRepository{returnErr: errors.New("connection reset")}
		svc := NewService(repo, &fakeNotifier{}, testLimits(), discardLogger())

		_, err := svc.ReturnBook(ctx, uuid.New())
		e := api.AsError(err)
		require.NotNil(t, e)
		assert.Equal(t, 500, e.Status)
	})
}
