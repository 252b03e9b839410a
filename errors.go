package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced on rich errors so HTTP layers and log pipelines can
// match on them without string comparisons against messages.
const (
	TextCodeAccountNotFound = "ACCOUNT_NOT_FOUND"
	TextCodeSessionNotFound = "SESSION_NOT_FOUND"
	TextCodeEmptyPassword   = "EMPTY_PASSWORD"
	TextCodeStoreFailure    = "STORE_UNAVAILABLE"
	TextCodeTooManyAttempts = "TOO_MANY_LOGIN_ATTEMPTS"
)

// ErrAccountNotFound is returned by credential stores when no account
// matches the identifier. The Authenticator folds it into the generic
// InvalidCredentials result so callers cannot enumerate users.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound)

// ErrSessionNotFound is returned by session stores for unknown tokens.
var ErrSessionNotFound = goerrors.New("session not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeSessionNotFound)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("password cannot be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrTooManyLoginAttempts is held by the throttling decorator; it is
// reported through logs and activity events, never to the end user.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// accountNotFound returns a per-call copy of ErrAccountNotFound carrying
// lookup metadata. The sentinel is shared package state; attaching metadata
// to it directly would race under concurrent lookups and leak one request's
// identifier into another's error.
func accountNotFound(metadata map[string]any) error {
	clone := ErrAccountNotFound.Clone()
	if clone == nil {
		return ErrAccountNotFound
	}
	return clone.WithMetadata(metadata)
}

// wrapStoreErr marks an infrastructure failure from the credential or
// session store. These propagate to the outer handler as a generic server
// error and are never retried here: a retry after a partial write could
// duplicate side effects.
func wrapStoreErr(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeStoreFailure)
}

// IsNotFound reports whether err represents a missing account or session.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}
