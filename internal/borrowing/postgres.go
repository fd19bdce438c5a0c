// internal/borrowing/postgres.go
package borrowing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var dialect = goqu.Dialect("postgres")

// Policy holds the lending tunables handed to the repository at construction.
type Policy struct {
	LoanPeriodDays int
	FinePerDay     int
}

// PostgresRepository implements Repository against Postgres. Mutations run in
// a single transaction guarded by the book row's version column: a losing
// concurrent writer sees zero affected rows and surfaces ErrConcurrencyConflict.
type PostgresRepository struct {
	db     *sqlx.DB
	policy Policy
	fines  FineCalculator
	now    func() time.Time
	tracer trace.Tracer
}

// NewPostgresRepository creates the canonical Repository implementation.
func NewPostgresRepository(db *sqlx.DB, policy Policy) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		policy: policy,
		fines:  FineCalculator{PerDay: policy.FinePerDay},
		now:    time.Now,
		tracer: otel.Tracer("librarium/borrowing"),
	}
}

// WithClock overrides the time source. Used by tests.
func (r *PostgresRepository) WithClock(now func() time.Time) *PostgresRepository {
	r.now = now
	return r
}

// today is the current UTC calendar day; loan dates are whole days.
func (r *PostgresRepository) today() time.Time {
	return r.now().UTC().Truncate(24 * time.Hour)
}

func (r *PostgresRepository) Borrow(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "borrowing.borrow",
		trace.WithAttributes(
			attribute.String("book.id", bookID.String()),
			attribute.String("user.id", userID.String()),
		),
	)
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var book struct {
		Available int `db:"available_copies"`
		Version   int `db:"version"`
	}
	err = tx.GetContext(ctx, &book,
		`SELECT available_copies, version FROM books WHERE id = $1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if book.Available <= 0 {
		return nil, ErrNoCopiesAvailable
	}

	// The service checks this too, but only the in-transaction check holds
	// under concurrent requests.
	var alreadyBorrowed bool
	err = tx.GetContext(ctx, &alreadyBorrowed,
		`SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE book_id = $1 AND user_id = $2 AND status IN ('borrowed', 'overdue')
		)`, bookID, userID)
	if err != nil {
		return nil, fmt.Errorf("check active loan: %w", err)
	}
	if alreadyBorrowed {
		return nil, ErrAlreadyBorrowed
	}

	var copyID uuid.UUID
	err = tx.GetContext(ctx, &copyID,
		`SELECT id FROM book_copies WHERE book_id = $1 AND is_available LIMIT 1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCopiesAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("pick copy: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE book_copies SET is_available = false WHERE id = $1 AND is_available`, copyID)
	if err != nil {
		return nil, fmt.Errorf("claim copy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return nil, ErrConcurrencyConflict
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE books
		 SET available_copies = available_copies - 1, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $2`, bookID, book.Version)
	if err != nil {
		return nil, fmt.Errorf("decrement availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return nil, ErrConcurrencyConflict
	}

	loan := &Loan{
		ID:         uuid.New(),
		UserID:     userID,
		BookID:     bookID,
		CopyID:     copyID,
		BorrowDate: r.today(),
		DueDate:    r.today().AddDate(0, 0, r.policy.LoanPeriodDays),
		Status:     StatusBorrowed,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO loans (id, user_id, book_id, copy_id, borrow_date, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		loan.ID, loan.UserID, loan.BookID, loan.CopyID, loan.BorrowDate, loan.DueDate, loan.Status)
	if err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit borrow: %w", err)
	}

	return loan, nil
}

func (r *PostgresRepository) Return(ctx context.Context, loanID uuid.UUID) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "borrowing.return",
		trace.WithAttributes(attribute.String("loan.id", loanID.String())),
	)
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var loan Loan
	err = tx.GetContext(ctx, &loan,
		`SELECT id, user_id, book_id, copy_id, borrow_date, due_date, return_date, fine_amount, status
		 FROM loans WHERE id = $1`, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load loan: %w", err)
	}
	if loan.Status == StatusReturned {
		return nil, ErrAlreadyReturned
	}

	var bookVersion int
	err = tx.GetContext(ctx, &bookVersion,
		`SELECT version FROM books WHERE id = $1`, loan.BookID)
	if err != nil {
		return nil, fmt.Errorf("load book version: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE book_copies SET is_available = true WHERE id = $1`, loan.CopyID); err != nil {
		return nil, fmt.Errorf("release copy: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET available_copies = available_copies + 1, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $2`, loan.BookID, bookVersion)
	if err != nil {
		return nil, fmt.Errorf("increment availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return nil, ErrConcurrencyConflict
	}

	returnedOn := r.today()
	fine := r.fines.Fine(loan.DueDate, returnedOn)

	_, err = tx.ExecContext(ctx,
		`UPDATE loans SET status = $1, return_date = $2, fine_amount = $3 WHERE id = $4`,
		StatusReturned, returnedOn, fine, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("mark returned: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit return: %w", err)
	}

	loan.Status = StatusReturned
	loan.ReturnDate = &returnedOn
	loan.FineAmount = fine

	return &loan, nil
}

func (r *PostgresRepository) AvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error) {
	var available int
	err := r.db.GetContext(ctx, &available,
		`SELECT available_copies FROM books WHERE id = $1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get available copies: %w", err)
	}
	return available, nil
}

var loanColumns = []interface{}{
	"id", "user_id", "book_id", "copy_id", "borrow_date", "due_date", "return_date", "fine_amount", "status",
}

func (r *PostgresRepository) ActiveLoansByUser(ctx context.Context, userID uuid.UUID) ([]Loan, error) {
	query := dialect.From("loans").Prepared(true).
		Select(loanColumns...).
		Where(
			goqu.C("user_id").Eq(userID.String()),
			goqu.C("status").In(string(StatusBorrowed), string(StatusOverdue)),
		).
		Order(goqu.C("borrow_date").Asc())

	return r.selectLoans(ctx, query)
}

func (r *PostgresRepository) ActiveLoans(ctx context.Context) ([]Loan, error) {
	query := dialect.From("loans").Prepared(true).
		Select(loanColumns...).
		Where(goqu.C("status").In(string(StatusBorrowed), string(StatusOverdue))).
		Order(goqu.C("due_date").Asc())

	return r.selectLoans(ctx, query)
}

func (r *PostgresRepository) OverdueLoans(ctx context.Context) ([]Loan, error) {
	query := dialect.From("loans").Prepared(true).
		Select(loanColumns...).
		Where(goqu.C("status").Eq(string(StatusOverdue))).
		Order(goqu.C("due_date").Asc())

	return r.selectLoans(ctx, query)
}

func (r *PostgresRepository) selectLoans(ctx context.Context, query *goqu.SelectDataset) ([]Loan, error) {
	sqlStr, args, err := query.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loans query: %w", err)
	}

	loans := []Loan{}
	if err := r.db.SelectContext(ctx, &loans, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("select loans: %w", err)
	}
	return loans, nil
}

func (r *PostgresRepository) OutstandingFine(ctx context.Context, userID uuid.UUID) (int, error) {
	var fine int
	err := r.db.GetContext(ctx, &fine,
		`SELECT COALESCE(SUM(fine_amount), 0) FROM loans WHERE user_id = $1 AND status = $2`,
		userID, StatusOverdue)
	if err != nil {
		return 0, fmt.Errorf("sum outstanding fine: %w", err)
	}
	return fine, nil
}

const noticeSelect = `
	SELECT l.id AS loan_id, u.name AS user_name, u.email AS user_email,
	       b.title AS book_title, l.borrow_date, l.due_date, l.fine_amount
	FROM loans l
	JOIN users u ON u.id = l.user_id
	JOIN books b ON b.id = l.book_id`

func (r *PostgresRepository) NoticeForLoan(ctx context.Context, loanID uuid.UUID) (*Notice, error) {
	var notice Notice
	err := r.db.GetContext(ctx, &notice, noticeSelect+` WHERE l.id = $1`, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load loan notice: %w", err)
	}
	return &notice, nil
}

func (r *PostgresRepository) DueTomorrowNotices(ctx context.Context) ([]Notice, error) {
	tomorrow := r.today().AddDate(0, 0, 1)
	notices := []Notice{}
	err := r.db.SelectContext(ctx, &notices,
		noticeSelect+` WHERE l.status = $1 AND l.due_date = $2`, StatusBorrowed, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("select due-tomorrow notices: %w", err)
	}
	return notices, nil
}

func (r *PostgresRepository) OverdueNotices(ctx context.Context) ([]Notice, error) {
	notices := []Notice{}
	err := r.db.SelectContext(ctx, &notices,
		noticeSelect+` WHERE l.status = $1`, StatusOverdue)
	if err != nil {
		return nil, fmt.Errorf("select overdue notices: %w", err)
	}
	return notices, nil
}

func (r *PostgresRepository) MarkOverdue(ctx context.Context) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "borrowing.mark_overdue")
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET status = $1 WHERE status = $2 AND due_date < $3`,
		StatusOverdue, StatusBorrowed, r.today())
	if err != nil {
		return false, fmt.Errorf("mark overdue loans: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	span.SetAttributes(attribute.Int64("loans.marked", n))

	return n > 0, nil
}
