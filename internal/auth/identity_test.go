package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"quizhost-service/internal/domain"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthenticateValidToken(t *testing.T) {
	verifier := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"sub":   "u1",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	principal, err := verifier.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.UID != "u1" || principal.Email != "alice@example.com" {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	verifier := NewJWTVerifier("secret")
	ctx := context.Background()

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": signToken(t, "other", jwt.MapClaims{"sub": "u1"}),
		"expired": signToken(t, "secret", jwt.MapClaims{
			"sub": "u1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}),
		"missing subject": signToken(t, "secret", jwt.MapClaims{"email": "a@b.c"}),
	}
	for name, token := range cases {
		if _, err := verifier.Authenticate(ctx, token); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("%s: expected unauthenticated, got %v", name, err)
		}
	}
}

func TestStaticIdentity(t *testing.T) {
	identity := StaticIdentity{"token-1": {UID: "u1", Email: "a@b.c"}}

	principal, err := identity.Authenticate(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.UID != "u1" {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if _, err := identity.Authenticate(context.Background(), "nope"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
