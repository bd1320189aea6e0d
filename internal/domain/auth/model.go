// Package auth provides authentication and the two-role authorization gate.
package auth

import (
	"context"
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	appctx "shopledger/internal/core/context"
	"shopledger/internal/core/id"
)

// User is an operator account. Role is one of admin or employee.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks entity invariants.
func (u *User) Validate(ctx context.Context) error {
	if strings.TrimSpace(u.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !strings.Contains(u.Email, "@") {
		return apperror.NewValidation("valid email is required").WithDetail("field", "email")
	}
	if u.Role != appctx.RoleAdmin && u.Role != appctx.RoleEmployee {
		return apperror.NewValidation("role must be admin or employee").
			WithDetail("value", u.Role)
	}
	return nil
}

// Repository defines persistence for user accounts.
type Repository interface {
	// GetByEmail retrieves a user by email. Returns NOT_FOUND if unknown.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new user. Returns DUPLICATE_ENTRY on email reuse.
	Create(ctx context.Context, user *User) error
}
