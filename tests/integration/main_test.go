// tests/integration/main_test.go
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/borrowing"
	"librarium/internal/catalog"
	"librarium/internal/clients"
	"librarium/internal/notify"
	"librarium/internal/postgres"
	"librarium/internal/users"
)

type testSuite struct {
	server *httptest.Server
	client *clients.LibraryClient
	db     *sqlx.DB
}

// setupTestSuite wires the full router over a real database, the same way the
// server entrypoint does, and exposes it through the HTTP client.
func setupTestSuite(t *testing.T) *testSuite {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db))
	_, err = db.Exec("TRUNCATE TABLE loans, book_copies, books, users, authors, categories CASCADE")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	notifier := &notify.LogNotifier{Logger: logger}

	repo := borrowing.NewPostgresRepository(db, borrowing.Policy{LoanPeriodDays: 14, FinePerDay: 5})
	borrowingSvc := borrowing.NewService(repo, notifier, borrowing.Limits{
		MaxActiveLoans:     3,
		MaxOutstandingFine: 100,
		FinePerDay:         5,
	}, logger)
	catalogSvc := catalog.NewService(db, logger)
	usersSvc := users.NewService(db, logger)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Route("/api", func(r chi.Router) {
		r.Mount("/", catalog.NewHandler(catalogSvc).Routes())
		r.Mount("/users", users.NewHandler(usersSvc).Routes())
		r.Mount("/borrowing", borrowing.NewHandler(borrowingSvc).Routes())
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testSuite{
		server: server,
		client: clients.NewLibraryClient(server.URL),
		db:     db,
	}
}

func (ts *testSuite) registerUser(t *testing.T, name, email string) uuid.UUID {
	t.Helper()

	body, err := json.Marshal(users.RegisterInput{Name: name, Email: email, Password: "SecurePass123!", Role: users.RoleStudent})
	require.NoError(t, err)

	resp, err := http.Post(ts.server.URL+"/api/users/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env struct {
		Data users.User `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data.ID
}

// seedUser bypasses the registration endpoint and its rate limit.
func (ts *testSuite) seedUser(t *testing.T) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := ts.db.Exec(
		`INSERT INTO users (id, name, email, password_hash, salt) VALUES ($1, $2, $3, '', '')`,
		id, "Reader "+id.String()[:8], id.String()[:8]+"@example.com")
	require.NoError(t, err)
	return id
}

func (ts *testSuite) addBook(t *testing.T, title, isbn string, copies int) *catalog.Book {
	t.Helper()
	ctx := context.Background()

	author, err := ts.client.AddAuthor(ctx, "Jane Austen")
	require.NoError(t, err)
	category, err := ts.client.AddCategory(ctx, "cat-"+uuid.New().String()[:8])
	require.NoError(t, err)

	book, err := ts.client.AddBook(ctx, catalog.BookInput{
		Title:       title,
		ISBN:        isbn,
		AuthorID:    author.ID,
		CategoryID:  category.ID,
		TotalCopies: copies,
	})
	require.NoError(t, err)
	return book
}

func TestBorrowReturnFlow(t *testing.T) {
	ts := setupTestSuite(t)
	ctx := context.Background()

	userID := ts.registerUser(t, "Test User", "test@example.com")
	book := ts.addBook(t, "Pride and Prejudice", "9780141439518", 5)

	loan, err := ts.client.BorrowBook(ctx, book.ID.String(), userID.String())
	require.NoError(t, err)
	assert.Equal(t, borrowing.StatusBorrowed, loan.Status)
	assert.Equal(t, loan.BorrowDate.AddDate(0, 0, 14), loan.DueDate)

	books, err := ts.client.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 4, books[0].AvailableCopies)

	// The same user cannot hold two copies of one book.
	_, err = ts.client.BorrowBook(ctx, book.ID.String(), userID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already borrowed")

	returned, err := ts.client.ReturnBook(ctx, loan.ID.String())
	require.NoError(t, err)
	assert.Equal(t, borrowing.StatusReturned, returned.Status)
	assert.Equal(t, 0, returned.FineAmount)

	books, err = ts.client.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, books[0].AvailableCopies)

	fine, err := ts.client.OutstandingFine(ctx, userID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, fine)
}

func TestConcurrentBorrowPreventsDoubleBooking(t *testing.T) {
	ts := setupTestSuite(t)
	ctx := context.Background()

	book := ts.addBook(t, "The Great Gatsby", "9780743273565", 1)

	userIDs := make([]uuid.UUID, 10)
	for i := range userIDs {
		userIDs[i] = ts.seedUser(t)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	for _, userID := range userIDs {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			if _, err := ts.client.BorrowBook(ctx, book.ID.String(), userID.String()); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(userID)
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "only one concurrent borrow should succeed")

	books, err := ts.client.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 0, books[0].AvailableCopies)
}
