package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

func TestIdentityTokens_RoundTrip(t *testing.T) {
	tokens := service.NewIdentityTokens("test-secret", time.Hour)

	signed, err := tokens.Sign(map[string]string{
		service.UserNameKey:  "Demo User",
		service.UserEmailKey: "demo@example.com",
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	values, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if values[service.UserNameKey] != "Demo User" || values[service.UserEmailKey] != "demo@example.com" {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestIdentityTokens_Rejects(t *testing.T) {
	tokens := service.NewIdentityTokens("test-secret", time.Hour)
	signed, _ := tokens.Sign(map[string]string{service.UserEmailKey: "demo@example.com"})

	tests := []struct {
		name   string
		tokens *service.IdentityTokens
		token  string
	}{
		{"garbage", tokens, "not-a-token"},
		{"wrong secret", service.NewIdentityTokens("other-secret", time.Hour), signed},
		{"tampered", tokens, signed[:len(signed)-2] + "xx"},
		{"expired", service.NewIdentityTokens("test-secret", -time.Minute), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token
			if token == "" {
				token, _ = tt.tokens.Sign(map[string]string{service.UserEmailKey: "demo@example.com"})
			}
			if _, err := tt.tokens.Parse(token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
