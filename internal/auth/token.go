// ABOUTME: Bearer credential source backed by the shared store
// ABOUTME: Fails fast on missing or locally-expired tokens before any backend call

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2389/avatar-link/internal/store"
)

// ErrNoToken indicates no credential is stored; the caller is unauthenticated.
var ErrNoToken = errors.New("no auth token stored")

// ErrTokenExpired indicates the stored JWT's exp claim is in the past.
var ErrTokenExpired = errors.New("auth token expired")

// TokenSource yields the bearer credential for backend requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StoreTokenSource reads the credential from the shared store and checks
// the JWT expiry claim locally, so an expired login fails with a clear
// error instead of a backend 401 round trip.
type StoreTokenSource struct {
	store store.Store
}

// NewTokenSource creates a TokenSource over the shared store.
func NewTokenSource(s store.Store) *StoreTokenSource {
	return &StoreTokenSource{store: s}
}

// Token returns the stored credential. It returns ErrNoToken when absent
// and ErrTokenExpired when the token is a JWT whose exp claim has passed.
// Tokens that are not parseable as JWTs are returned as-is; the backend
// is the authority on their validity.
func (t *StoreTokenSource) Token(ctx context.Context) (string, error) {
	raw, err := t.store.Get(ctx, store.KeyAuthToken)
	if err != nil {
		return "", ErrNoToken
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", ErrNoToken
	}

	if exp, ok := expiry(token); ok && time.Now().After(exp) {
		return "", ErrTokenExpired
	}

	return token, nil
}

// expiry extracts the exp claim without verifying the signature. The
// signature belongs to the backend; we only want the timestamp.
func expiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Login persists a credential in the shared store.
func Login(ctx context.Context, s store.Store, token string) error {
	return s.Set(ctx, store.KeyAuthToken, []byte(strings.TrimSpace(token)))
}

// Logout removes the stored credential.
func Logout(ctx context.Context, s store.Store) error {
	return s.Delete(ctx, store.KeyAuthToken)
}
