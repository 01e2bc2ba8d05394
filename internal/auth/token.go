// Package auth carries the backend bearer credential to the HTTP client
// without any process-wide token store.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrNoToken is returned when no bearer credential is available.
var ErrNoToken = errors.New("no bearer token")

// TokenSource yields the bearer credential for an outgoing backend request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed credential, typically loaded from configuration.
type StaticToken string

// Token returns the configured credential.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

type tokenKey struct{}

// WithToken returns a context carrying the caller's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// FromContext returns the bearer token stored by WithToken.
func FromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// ContextTokenSource prefers the token on the request context and falls back
// to Fallback when the context carries none.
type ContextTokenSource struct {
	Fallback TokenSource
}

// Token implements TokenSource.
func (s ContextTokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := FromContext(ctx); ok {
		return token, nil
	}
	if s.Fallback == nil {
		return "", ErrNoToken
	}
	return s.Fallback.Token(ctx)
}

// ParseBearer extracts the credential from an Authorization header value.
func ParseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
