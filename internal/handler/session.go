package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

const (
	authCookieName    = "auth_token"
	sessionCookieName = "sid"
)

// SessionStorageFactory opens the SessionStorage for the browser that sent r.
// It may set cookies on w.
type SessionStorageFactory interface {
	Open(w http.ResponseWriter, r *http.Request) service.SessionStorage
}

// CookieSessions keeps the session values in a signed auth_token cookie.
type CookieSessions struct {
	Tokens *service.IdentityTokens
	Secure bool
}

// NewCookieSessions creates a cookie-backed factory.
func NewCookieSessions(tokens *service.IdentityTokens, secure bool) *CookieSessions {
	return &CookieSessions{Tokens: tokens, Secure: secure}
}

func (c *CookieSessions) Open(w http.ResponseWriter, r *http.Request) service.SessionStorage {
	values := map[string]string{}
	if cookie, err := r.Cookie(authCookieName); err == nil {
		if parsed, err := c.Tokens.Parse(cookie.Value); err == nil {
			values = parsed
		}
	}
	return &cookieStorage{w: w, tokens: c.Tokens, secure: c.Secure, values: values}
}

// cookieStorage re-issues the auth_token cookie on every change. Values live
// in the signed token, so nothing is kept on the server.
type cookieStorage struct {
	w      http.ResponseWriter
	tokens *service.IdentityTokens
	secure bool

	mu     sync.Mutex
	values map[string]string
}

func (s *cookieStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *cookieStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flush()
}

func (s *cookieStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flush()
}

func (s *cookieStorage) flush() error {
	cookie := &http.Cookie{
		Name:     authCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if len(s.values) == 0 {
		cookie.MaxAge = -1
	} else {
		token, err := s.tokens.Sign(s.values)
		if err != nil {
			return err
		}
		cookie.Value = token
		cookie.MaxAge = int(s.tokens.TTL() / time.Second)
	}
	replaceCookie(s.w, cookie)
	return nil
}

// RedisSessions keeps the session values in Redis, keyed by a random sid
// cookie.
type RedisSessions struct {
	Client redis.Cmdable
	TTL    time.Duration
	Secure bool
}

// NewRedisSessions creates a Redis-backed factory.
func NewRedisSessions(client redis.Cmdable, ttl time.Duration, secure bool) *RedisSessions {
	return &RedisSessions{Client: client, TTL: ttl, Secure: secure}
}

func (f *RedisSessions) Open(w http.ResponseWriter, r *http.Request) service.SessionStorage {
	sid := ""
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			sid = cookie.Value
		}
	}
	if sid == "" {
		sid = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sid,
			Path:     "/",
			HttpOnly: true,
			Secure:   f.Secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(f.TTL / time.Second),
		})
	}
	return service.NewRedisStorage(f.Client, sid, f.TTL)
}

// replaceCookie sets cookie, dropping any Set-Cookie header already queued
// for the same name.
func replaceCookie(w http.ResponseWriter, cookie *http.Cookie) {
	prefix := cookie.Name + "="
	headers := w.Header()["Set-Cookie"]
	kept := headers[:0]
	for _, h := range headers {
		if !strings.HasPrefix(h, prefix) {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		w.Header().Del("Set-Cookie")
	} else {
		w.Header()["Set-Cookie"] = kept
	}
	http.SetCookie(w, cookie)
}

type sessionContextKey struct{}

// SessionFromContext returns the request's session store, or nil outside
// the session middleware.
func SessionFromContext(ctx context.Context) *service.SessionStore {
	store, _ := ctx.Value(sessionContextKey{}).(*service.SessionStore)
	return store
}

// UserFromContext returns the signed-in user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	if store := SessionFromContext(ctx); store != nil {
		return store.User()
	}
	return nil
}
