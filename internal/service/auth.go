package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates recruiters against locally stored accounts. It
// is used instead of the recruiting backend when AUTH_MODE=local.
type AuthService struct {
	users      domain.UserRepository
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, bcryptCost int) *AuthService {
	return &AuthService{users: users, bcryptCost: bcryptCost}
}

// Register creates a new account after validating inputs.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || req.Password == "" {
		return fmt.Errorf("%w: name, email, and password are required", domain.ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Authenticate verifies credentials and returns the account's identity.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	return &domain.User{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}
