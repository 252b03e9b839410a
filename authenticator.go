package auth

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// AuthStatus tags the outcome of an authentication attempt.
type AuthStatus string

const (
	// AuthSuccess means the identifier/secret pair matched an active account.
	AuthSuccess AuthStatus = "success"
	// AuthInvalidCredentials covers both unknown identifiers and wrong
	// secrets; the two are indistinguishable to callers.
	AuthInvalidCredentials AuthStatus = "invalid_credentials"
	// AuthAccountInactive means the secret matched but the account is
	// disabled. Only reachable after a successful credential check.
	AuthAccountInactive AuthStatus = "account_inactive"
	// AuthMalformedRequest means identifier or secret was empty.
	AuthMalformedRequest AuthStatus = "malformed_request"
	// AuthThrottled is produced by ThrottledAuthenticator while an
	// identifier is inside its backoff window.
	AuthThrottled AuthStatus = "throttled"
)

// AuthResult is the transient outcome of Authenticate. AccountID and Role
// are only set on AuthSuccess.
type AuthResult struct {
	Status    AuthStatus
	AccountID int64
	Role      Role
}

// OK reports whether the attempt succeeded.
func (r AuthResult) OK() bool {
	return r.Status == AuthSuccess
}

// Authenticator validates identifier/secret pairs against a credential
// store. Expected outcomes (bad credentials, inactive account, malformed
// input) come back as AuthResult values; the error return is reserved for
// store failures.
type Authenticator struct {
	store  CredentialStore
	hasher *Hasher
	logger Logger
	sink   ActivitySink
	now    func() time.Time
}

// NewAuthenticator returns a new Authenticator bound to the given store
// and hasher.
func NewAuthenticator(store CredentialStore, hasher *Hasher) *Authenticator {
	return &Authenticator{
		store:  store,
		hasher: hasher,
		logger: defLogger{},
		sink:   noopActivitySink{},
		now:    time.Now,
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.sink = normalizeActivitySink(sink)
	return a
}

// WithClock injects a custom clock (useful for tests).
func (a *Authenticator) WithClock(clock func() time.Time) *Authenticator {
	if clock != nil {
		a.now = clock
	}
	return a
}

// Authenticate turns an identifier/secret pair into an AuthResult.
//
// The credential check runs before the active check, so a wrong secret on a
// disabled account still reads as invalid credentials. Lookup misses burn a
// dummy hash comparison so they cost the same as a mismatch. The last_login
// write piggybacks on success and is not allowed to fail the login.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, secret string) (AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || strings.TrimSpace(secret) == "" {
		return AuthResult{Status: AuthMalformedRequest}, nil
	}

	account, err := a.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if IsNotFound(err) {
			a.hasher.VerifyDummy(secret)
			a.emit(ctx, ActivityEventLoginFailure, 0, map[string]any{
				"identifier": identifier,
				"reason":     string(AuthInvalidCredentials),
			})
			return AuthResult{Status: AuthInvalidCredentials}, nil
		}
		a.logger.Error("authenticate lookup failed", "identifier", identifier, "error", err)
		return AuthResult{}, wrapStoreErr(err, "credential lookup failed")
	}

	if !a.hasher.Verify(secret, account.PasswordHash) {
		a.emit(ctx, ActivityEventLoginFailure, account.ID, map[string]any{
			"identifier": identifier,
			"reason":     string(AuthInvalidCredentials),
		})
		return AuthResult{Status: AuthInvalidCredentials}, nil
	}

	if !account.Active {
		a.logger.Warn("login blocked, account inactive", "account_id", account.ID)
		a.emit(ctx, ActivityEventLoginFailure, account.ID, map[string]any{
			"identifier": identifier,
			"reason":     string(AuthAccountInactive),
		})
		return AuthResult{Status: AuthAccountInactive}, nil
	}

	if err := a.store.UpdateLastLogin(ctx, account.ID, a.now()); err != nil {
		a.logger.Warn("failed to record last_login", "account_id", account.ID, "error", err)
	}

	a.emit(ctx, ActivityEventLoginSuccess, account.ID, map[string]any{
		"identifier": identifier,
	})

	return AuthResult{
		Status:    AuthSuccess,
		AccountID: account.ID,
		Role:      account.Role,
	}, nil
}

func (a *Authenticator) emit(ctx context.Context, eventType ActivityEventType, accountID int64, metadata map[string]any) {
	actor := ActorRef{Type: "unknown"}
	if accountID != 0 {
		actor = ActorRef{ID: strconv.FormatInt(accountID, 10), Type: "account"}
	}

	recordActivity(ctx, a.sink, a.logger, ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		AccountID: accountID,
		Metadata:  metadata,
	})
}
