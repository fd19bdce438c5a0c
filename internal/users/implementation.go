// internal/users/implementation.go
package users

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"librarium/internal/api"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// service implements the Service interface.
type service struct {
	db          *sqlx.DB
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewService creates a new users service instance.
func NewService(db *sqlx.DB, logger *slog.Logger) Service {
	return &service{
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute), 5), // 5 registrations per minute
		logger:      logger,
	}
}

// Register creates a new user with an Argon2id password hash.
func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, &api.Error{Status: 429, Message: "Too many registrations, try again later"}
	}

	if input.Name == "" || input.Password == "" {
		return nil, api.BadRequest("Name and password are required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, api.BadRequest("Invalid email address")
	}
	if input.Role == "" {
		input.Role = RoleStudent
	}
	if !input.Role.Valid() {
		return nil, api.BadRequest("Invalid role")
	}

	hash, salt, err := hashPassword(input.Password)
	if err != nil {
		return nil, api.Internal("Could not register the user.", err)
	}

	user := &User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Salt:         salt,
		Role:         input.Role,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, salt, role)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Salt, user.Role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, api.BadRequest("A user with this email already exists")
		}
		return nil, api.Internal("Could not register the user.", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api.NotFound("User not found")
	}
	if err != nil {
		return nil, api.Internal("Could not fetch the user.", err)
	}
	return &user, nil
}

func (s *service) List(ctx context.Context) ([]User, error) {
	list := []User{}
	if err := s.db.SelectContext(ctx, &list, `SELECT * FROM users ORDER BY name`); err != nil {
		return nil, api.Internal("Could not fetch users.", err)
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*User, error) {
	if input.Name == "" {
		return nil, api.BadRequest("Name is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, api.BadRequest("Invalid email address")
	}
	if !input.Role.Valid() {
		return nil, api.BadRequest("Invalid role")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = $1, email = $2, role = $3, updated_at = now() WHERE id = $4`,
		input.Name, input.Email, input.Role, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, api.BadRequest("A user with this email already exists")
		}
		return nil, api.Internal("Could not update the user.", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, api.NotFound("User not found")
	}

	return s.Get(ctx, id)
}

// Remove deletes a user. Refused while the user still holds active loans.
func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	var hasActiveLoans bool
	err := s.db.GetContext(ctx, &hasActiveLoans,
		`SELECT EXISTS (SELECT 1 FROM loans WHERE user_id = $1 AND status IN ('borrowed', 'overdue'))`, id)
	if err != nil {
		return api.Internal("Could not remove the user.", err)
	}
	if hasActiveLoans {
		return api.BadRequest("Cannot remove a user with active loans")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return api.BadRequest("Cannot remove a user with borrowing history")
		}
		return api.Internal("Could not remove the user.", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.NotFound("User not found")
	}

	s.logger.Info("user removed", "user_id", id)
	return nil
}
