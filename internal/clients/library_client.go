// internal/clients/library_client.go
package clients

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"librarium/internal/borrowing"
	"librarium/internal/catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LibraryClient talks to the librarium HTTP API.
type LibraryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLibraryClient(baseURL string) *LibraryClient {
	return &LibraryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// envelope mirrors the server's response wrapper with a raw payload.
type envelope struct {
	IsSuccess bool                `json:"is_success"`
	Message   string              `json:"message"`
	Data      jsoniter.RawMessage `json:"data"`
}

func (c *LibraryClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.IsSuccess {
		return fmt.Errorf("%s (status %d)", env.Message, resp.StatusCode)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}

	return nil
}

func (c *LibraryClient) ListBooks(ctx context.Context) ([]catalog.Book, error) {
	var books []catalog.Book
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *LibraryClient) AddBook(ctx context.Context, input catalog.BookInput) (*catalog.Book, error) {
	var book catalog.Book
	if err := c.do(ctx, http.MethodPost, "/api/books", input, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *LibraryClient) AddAuthor(ctx context.Context, name string) (*catalog.Author, error) {
	var author catalog.Author
	if err := c.do(ctx, http.MethodPost, "/api/authors", map[string]string{"name": name}, &author); err != nil {
		return nil, err
	}
	return &author, nil
}

func (c *LibraryClient) AddCategory(ctx context.Context, name string) (*catalog.Category, error) {
	var category catalog.Category
	if err := c.do(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *LibraryClient) BorrowBook(ctx context.Context, bookID, userID string) (*borrowing.Loan, error) {
	var loan borrowing.Loan
	path := fmt.Sprintf("/api/borrowing/borrow?bookId=%s&userId=%s", bookID, userID)
	if err := c.do(ctx, http.MethodPost, path, nil, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (c *LibraryClient) ReturnBook(ctx context.Context, loanID string) (*borrowing.Loan, error) {
	var loan borrowing.Loan
	path := fmt.Sprintf("/api/borrowing/return?borrowingId=%s", loanID)
	if err := c.do(ctx, http.MethodPost, path, nil, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (c *LibraryClient) OverdueLoans(ctx context.Context) ([]borrowing.Loan, error) {
	var loans []borrowing.Loan
	if err := c.do(ctx, http.MethodGet, "/api/borrowing/borrowed/overdue", nil, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (c *LibraryClient) OutstandingFine(ctx context.Context, userID string) (int, error) {
	var fine int
	if err := c.do(ctx, http.MethodGet, "/api/borrowing/fine/user/"+userID, nil, &fine); err != nil {
		return 0, err
	}
	return fine, nil
}

func (c *LibraryClient) RunSweep(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/sweep", nil, nil)
}
