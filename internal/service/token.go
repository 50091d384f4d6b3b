package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/recruit-dashboard/internal/domain"
)

// IdentityTokens signs and verifies the session values carried in the
// auth_token cookie.
type IdentityTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type identityClaims struct {
	Values map[string]string `json:"values"`
	jwt.RegisteredClaims
}

// NewIdentityTokens creates a signer using HMAC-SHA256.
func NewIdentityTokens(secret string, ttl time.Duration) *IdentityTokens {
	return &IdentityTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long a signed token stays valid.
func (t *IdentityTokens) TTL() time.Duration {
	return t.ttl
}

// Sign returns a token carrying values.
func (t *IdentityTokens) Sign(values map[string]string) (string, error) {
	now := t.now()
	claims := identityClaims{
		Values: values,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   values[UserEmailKey],
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign identity token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString and returns its values.
func (t *IdentityTokens) Parse(tokenString string) (map[string]string, error) {
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Values == nil {
		return map[string]string{}, nil
	}
	return claims.Values, nil
}
