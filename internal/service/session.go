package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

// Keys under which the signed-in identity is persisted.
const (
	UserNameKey  = "interview-user-name"
	UserEmailKey = "interview-user-email"
)

const sessionServiceName = "session_store"

// SessionState is the authentication state of a browser session.
type SessionState string

const (
	SessionLoading         SessionState = "loading"
	SessionAuthenticated   SessionState = "authenticated"
	SessionUnauthenticated SessionState = "unauthenticated"
)

// SessionStorage persists string values for one browser session. Get
// returns "" for absent keys.
type SessionStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// SessionStore holds the signed-in user of one browser session.
type SessionStore struct {
	auth    domain.Authenticator
	storage SessionStorage
	logger  *slog.Logger

	mu    sync.RWMutex
	state SessionState
	user  *domain.User
}

// NewSessionStore creates a store in the loading state. Call Restore before
// reading the user.
func NewSessionStore(auth domain.Authenticator, storage SessionStorage, logger *slog.Logger) *SessionStore {
	return &SessionStore{auth: auth, storage: storage, logger: logger, state: SessionLoading}
}

// Restore reads the persisted identity. The session is authenticated only
// when both keys are present.
func (s *SessionStore) Restore(ctx context.Context) error {
	name, err := s.storage.Get(ctx, UserNameKey)
	if err != nil {
		s.settle(nil)
		return fmt.Errorf("read %s: %w", UserNameKey, err)
	}
	email, err := s.storage.Get(ctx, UserEmailKey)
	if err != nil {
		s.settle(nil)
		return fmt.Errorf("read %s: %w", UserEmailKey, err)
	}

	if name == "" || email == "" {
		s.settle(nil)
		return nil
	}
	s.settle(&domain.User{Name: name, Email: email})
	return nil
}

// Login verifies the credentials and persists the returned identity.
func (s *SessionStore) Login(ctx context.Context, email, password string) (user *domain.User, err error) {
	logger := serviceLogger(ctx, s.logger, sessionServiceName, "login", "email", email)
	defer func() { logOutcome(ctx, logger, err) }()

	s.setState(SessionLoading)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.settle(nil)
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, err = s.auth.Authenticate(ctx, email, password)
	if err != nil {
		s.settle(nil)
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err = s.storage.Set(ctx, UserNameKey, user.Name); err != nil {
		s.settle(nil)
		return nil, fmt.Errorf("store %s: %w", UserNameKey, err)
	}
	if err = s.storage.Set(ctx, UserEmailKey, user.Email); err != nil {
		s.storage.Remove(ctx, UserNameKey)
		s.settle(nil)
		return nil, fmt.Errorf("store %s: %w", UserEmailKey, err)
	}

	s.settle(user)
	return user, nil
}

// Register creates an account. It does not sign the new user in; the
// session returns to the state it had before the call.
func (s *SessionStore) Register(ctx context.Context, name, email, password string) (err error) {
	logger := serviceLogger(ctx, s.logger, sessionServiceName, "register", "email", email)
	defer func() { logOutcome(ctx, logger, err) }()

	s.mu.Lock()
	previous := s.user
	s.state = SessionLoading
	s.mu.Unlock()
	defer s.settle(previous)

	v := &domain.ValidationError{}
	if runeLen(name) < minNameLength {
		v.Add("name", "Name must be at least 2 characters")
	}
	if !validEmail(strings.TrimSpace(email)) {
		v.Add("email", "Please enter a valid email address")
	}
	if len(password) < 8 {
		v.Add("password", "Password must be at least 8 characters")
	}
	if err = v.Err(); err != nil {
		return err
	}

	err = s.auth.Register(ctx, domain.RegisterRequest{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     domain.DefaultRole,
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Logout forgets the persisted identity. It never calls the backend and
// always leaves the session unauthenticated.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.settle(nil)
	errName := s.storage.Remove(ctx, UserNameKey)
	errEmail := s.storage.Remove(ctx, UserEmailKey)
	if errName != nil {
		return fmt.Errorf("remove %s: %w", UserNameKey, errName)
	}
	if errEmail != nil {
		return fmt.Errorf("remove %s: %w", UserEmailKey, errEmail)
	}
	return nil
}

// User returns the signed-in user or nil.
func (s *SessionStore) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// State returns the current session state.
func (s *SessionStore) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a user is signed in.
func (s *SessionStore) IsAuthenticated() bool {
	return s.State() == SessionAuthenticated
}

func (s *SessionStore) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *SessionStore) settle(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	if user != nil {
		s.state = SessionAuthenticated
	} else {
		s.state = SessionUnauthenticated
	}
}

// MemoryStorage is a SessionStorage backed by a map.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
