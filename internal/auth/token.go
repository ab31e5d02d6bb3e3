package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	ChildID int64 `json:"child_id"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 learner tokens.
type Tokens struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokens(secret string, expiry time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (t *Tokens) Issue(childID int64) (string, error) {
	now := t.now()
	claims := &Claims{
		ChildID: childID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies tokenString and returns the learner id it was issued for.
func (t *Tokens) Parse(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ChildID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.ChildID, nil
}

type contextKey string

const childIDKey contextKey = "child_id"

func WithChildID(ctx context.Context, childID int64) context.Context {
	return context.WithValue(ctx, childIDKey, childID)
}

// ChildID returns the authenticated learner id stored by the auth middleware.
func ChildID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(childIDKey).(int64)
	return id, ok
}
