package domain

import (
	"context"
	"time"
)

// User is the identity of a signed-in recruiter. Users authenticated by the
// remote recruiting backend only carry Name and Email; ID and PasswordHash are
// populated for locally stored accounts.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest carries the fields sent when creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// DefaultRole is the role assigned to accounts created from the dashboard.
const DefaultRole = "interviewer"

// UserRepository defines persistence operations for locally stored users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Authenticator verifies credentials and creates accounts. It is implemented
// by the remote recruiting API client and by the local SQLite-backed service.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*User, error)
	Register(ctx context.Context, req RegisterRequest) error
}
