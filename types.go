package auth

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the package needs. Consumers plug
// in their own implementation; the default prints to stdout.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore is the boundary to wherever accounts live. Lookups return
// ErrAccountNotFound (not nil, nil) when no account matches; any other
// error is treated as infrastructure failure.
type CredentialStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// SessionStore persists sessions. Revoke and RevokeAll are idempotent:
// revoking an already revoked or unknown token is not an error.
type SessionStore interface {
	Insert(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string, at time.Time) error
	RevokeAll(ctx context.Context, accountID int64, at time.Time) error
}

// CredentialAuthenticator is what the login flow consumes. Authenticator
// implements it; ThrottledAuthenticator decorates it.
type CredentialAuthenticator interface {
	Authenticate(ctx context.Context, identifier, secret string) (AuthResult, error)
}

// Config holds auth options. The concrete values come from whatever
// composes the service; EnvConfig reads them from the environment.
type Config interface {
	GetBcryptCost() int
	GetSessionTTL() time.Duration
	GetExtendedSessionTTL() time.Duration
	GetCookieName() string
	GetCookieSecure() bool
	GetCookieHTTPOnly() bool
	GetCookieSameSite() string
	GetLoginRoute() string
	GetAdminLanding() string
	GetDefaultLanding() string
	GetRejectedRouteKey() string
}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
