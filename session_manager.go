package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// tokenBytes is the entropy of a session token (256 bits, base64url encoded).
const tokenBytes = 32

// NewSessionToken generates a cryptographically random opaque token.
func NewSessionToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", wrapStoreErr(err, "unable to generate session token")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// SessionManager issues, validates, and revokes sessions. Validation never
// trusts a cached account flag: every call re-reads the bound account, so a
// deactivation is visible on the very next request.
type SessionManager struct {
	store    SessionStore
	accounts CredentialStore

	ttl         time.Duration
	extendedTTL time.Duration

	logger Logger
	sink   ActivitySink
	now    func() time.Time
}

// NewSessionManager returns a SessionManager using the configured default
// and extended ("remember me") TTLs.
func NewSessionManager(store SessionStore, accounts CredentialStore, cfg Config) *SessionManager {
	ttl := cfg.GetSessionTTL()
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	extendedTTL := cfg.GetExtendedSessionTTL()
	if extendedTTL <= 0 {
		extendedTTL = ttl
	}

	return &SessionManager{
		store:       store,
		accounts:    accounts,
		ttl:         ttl,
		extendedTTL: extendedTTL,
		logger:      defLogger{},
		sink:        noopActivitySink{},
		now:         time.Now,
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures an ActivitySink for session events.
func (m *SessionManager) WithActivitySink(sink ActivitySink) *SessionManager {
	m.sink = normalizeActivitySink(sink)
	return m
}

// WithClock injects a custom clock (useful for tests).
func (m *SessionManager) WithClock(clock func() time.Time) *SessionManager {
	if clock != nil {
		m.now = clock
	}
	return m
}

// TTL returns the default session duration.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// ExtendedTTL returns the "remember me" session duration.
func (m *SessionManager) ExtendedTTL() time.Duration {
	return m.extendedTTL
}

// Create issues a new session for accountID. Existing sessions for the same
// account are left alone: multi-device login is allowed. The session is a
// single row insert, so it is either fully created or not created at all.
func (m *SessionManager) Create(ctx context.Context, accountID int64, remember bool) (*Session, error) {
	token, err := NewSessionToken()
	if err != nil {
		return nil, err
	}

	ttl := m.ttl
	if remember {
		ttl = m.extendedTTL
	}

	now := m.now()
	session := &Session{
		ID:        uuid.New(),
		Token:     token,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := m.store.Insert(ctx, session); err != nil {
		m.logger.Error("session insert failed", "account_id", accountID, "error", err)
		return nil, wrapStoreErr(err, "unable to persist session")
	}

	return session, nil
}

// Validate resolves a token to a Grant. It returns ok=false for unknown,
// revoked, or expired tokens and for tokens whose account has since been
// deactivated or deleted. The error return is reserved for store failures.
func (m *SessionManager) Validate(ctx context.Context, token string) (Grant, bool, error) {
	if token == "" {
		return Grant{}, false, nil
	}

	session, err := m.store.GetByToken(ctx, token)
	if err != nil {
		if IsNotFound(err) {
			return Grant{}, false, nil
		}
		return Grant{}, false, wrapStoreErr(err, "session lookup failed")
	}

	if !session.LiveAt(m.now()) {
		return Grant{}, false, nil
	}

	// fresh read, the account may have been deactivated since login
	account, err := m.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if IsNotFound(err) {
			return Grant{}, false, nil
		}
		return Grant{}, false, wrapStoreErr(err, "account re-check failed")
	}

	if !account.Active {
		return Grant{}, false, nil
	}

	return Grant{
		AccountID: account.ID,
		Role:      account.Role.Normalize(),
	}, true, nil
}

// Revoke marks the session for token revoked. Revoking an unknown or
// already revoked token is a no-op success.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := m.store.Revoke(ctx, token, m.now()); err != nil {
		m.logger.Error("session revoke failed", "error", err)
		return wrapStoreErr(err, "unable to revoke session")
	}

	return nil
}

// RevokeAll revokes every live session bound to accountID. Used when an
// account is deactivated or its password changes.
func (m *SessionManager) RevokeAll(ctx context.Context, accountID int64) error {
	if err := m.store.RevokeAll(ctx, accountID, m.now()); err != nil {
		m.logger.Error("session revoke all failed", "account_id", accountID, "error", err)
		return wrapStoreErr(err, "unable to revoke account sessions")
	}

	recordActivity(ctx, m.sink, m.logger, ActivityEvent{
		EventType: ActivityEventSessionRevoked,
		Actor:     ActorRef{ID: strconv.FormatInt(accountID, 10), Type: "account"},
		AccountID: accountID,
		Metadata:  map[string]any{"scope": "all"},
	})

	return nil
}
