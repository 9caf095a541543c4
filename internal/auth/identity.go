package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"quizhost-service/internal/domain"
)

// Principal is the authenticated caller: a stable user id and the email the
// identity provider vouched for.
type Principal struct {
	UID   string
	Email string
}

// Identity resolves a bearer credential into a principal. The core trusts
// the returned uid as the attempt owner.
type Identity interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// JWTVerifier validates HS256 bearer tokens and reads the uid/email claims.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Authenticate(_ context.Context, tokenString string) (Principal, error) {
	if tokenString == "" {
		return Principal{}, domain.ErrUnauthenticated
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, domain.ErrUnauthenticated
	}
	uid, _ := claims["sub"].(string)
	if uid == "" {
		return Principal{}, fmt.Errorf("%w: token missing subject", domain.ErrUnauthenticated)
	}
	email, _ := claims["email"].(string)
	return Principal{UID: uid, Email: email}, nil
}

// StaticIdentity maps fixed tokens to principals; test and demo use only.
type StaticIdentity map[string]Principal

func (s StaticIdentity) Authenticate(_ context.Context, token string) (Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return Principal{}, domain.ErrUnauthenticated
}
