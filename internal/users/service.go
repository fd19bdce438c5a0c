// internal/users/service.go
package users

import (
	"context"

	"github.com/google/uuid"
)

// RegisterInput carries the fields for creating a user.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// UpdateInput carries the mutable profile fields.
type UpdateInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Service defines the interface for the users service.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*User, error)
	Remove(ctx context.Context, id uuid.UUID) error
}
