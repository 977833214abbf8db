package core

import (
	"context"
	"time"
)

// Roles. Super admins see every location; admins and operators are pinned to
// one.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
)

// User represents an authenticated system user scoped to a location.
// LocationID is nil for super admins.
type User struct {
	ID           int       `json:"id"`
	LocationID   *int      `json:"locationId"`
	Username     string    `json:"username"`
	Email        *string   `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserInput carries a user create or update. Password is plaintext and is
// hashed before storage; empty on update keeps the current hash.
type UserInput struct {
	LocationID *int    `json:"locationId"`
	Username   string  `json:"username"`
	Email      *string `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
}

// UserService provides user management and credential checks.
type UserService interface {
	Create(ctx context.Context, input UserInput) (*User, error)
	Update(ctx context.Context, id int, input UserInput) (*User, error)
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*User, error)
	List(ctx context.Context, locationID *int) ([]User, error)

	// Authenticate verifies username and password and returns the user, or a
	// Forbidden error when the credentials do not match.
	Authenticate(ctx context.Context, username, password string) (*User, error)
}
