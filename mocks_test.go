package auth_test

import (
	"context"
	"errors"
	"sync"
	"time"

	auth "github.com/innkeep/go-auth"
)

// memCredentialStore is an in memory CredentialStore used by the unit
// tests that do not need a real database.
type memCredentialStore struct {
	mu       sync.Mutex
	accounts map[int64]*auth.Account

	failLookups    bool
	failLastLogin  bool
	lastLoginCalls int
}

func newMemCredentialStore(accounts ...*auth.Account) *memCredentialStore {
	s := &memCredentialStore{accounts: map[int64]*auth.Account{}}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *memCredentialStore) GetByIdentifier(ctx context.Context, identifier string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLookups {
		return nil, errors.New("store offline")
	}

	for _, a := range s.accounts {
		if a.Username == identifier || a.Email == identifier {
			clone := *a
			return &clone, nil
		}
	}

	return nil, auth.ErrAccountNotFound
}

func (s *memCredentialStore) GetByID(ctx context.Context, id int64) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLookups {
		return nil, errors.New("store offline")
	}

	if a, ok := s.accounts[id]; ok {
		clone := *a
		return &clone, nil
	}

	return nil, auth.ErrAccountNotFound
}

func (s *memCredentialStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastLoginCalls++

	if s.failLastLogin {
		return errors.New("write failed")
	}

	if a, ok := s.accounts[id]; ok {
		ts := at
		a.LastLogin = &ts
	}

	return nil
}

func (s *memCredentialStore) setActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[id]; ok {
		a.Active = active
	}
}

func (s *memCredentialStore) lastLogin(id int64) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[id]; ok {
		return a.LastLogin
	}
	return nil
}

// memSessionStore is an in memory SessionStore.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session

	failInserts bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*auth.Session{}}
}

func (s *memSessionStore) Insert(ctx context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failInserts {
		return errors.New("store offline")
	}

	clone := *session
	s.sessions[session.Token] = &clone

	return nil
}

func (s *memSessionStore) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[token]; ok {
		clone := *sess
		return &clone, nil
	}

	return nil, auth.ErrSessionNotFound
}

func (s *memSessionStore) Revoke(ctx context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[token]; ok && !sess.Revoked {
		ts := at
		sess.Revoked = true
		sess.RevokedAt = &ts
	}

	return nil
}

func (s *memSessionStore) RevokeAll(ctx context.Context, accountID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.AccountID == accountID && !sess.Revoked {
			ts := at
			sess.Revoked = true
			sess.RevokedAt = &ts
		}
	}

	return nil
}

func (s *memSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// captureSink records activity events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *captureSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) types() []auth.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]auth.ActivityEventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventType)
	}
	return out
}

// testConfig is a fixed Config for tests.
type testConfig struct {
	cookieName  string
	sessionTTL  time.Duration
	extendedTTL time.Duration
}

func newTestConfig() *testConfig {
	return &testConfig{
		cookieName:  "cms_session",
		sessionTTL:  time.Hour,
		extendedTTL: 72 * time.Hour,
	}
}

func (c *testConfig) GetBcryptCost() int                   { return 4 }
func (c *testConfig) GetSessionTTL() time.Duration         { return c.sessionTTL }
func (c *testConfig) GetExtendedSessionTTL() time.Duration { return c.extendedTTL }
func (c *testConfig) GetCookieName() string                { return c.cookieName }
func (c *testConfig) GetCookieSecure() bool                { return false }
func (c *testConfig) GetCookieHTTPOnly() bool              { return true }
func (c *testConfig) GetCookieSameSite() string            { return "Lax" }
func (c *testConfig) GetLoginRoute() string                { return "/login" }
func (c *testConfig) GetAdminLanding() string              { return "/admin" }
func (c *testConfig) GetDefaultLanding() string            { return "/dashboard" }
func (c *testConfig) GetRejectedRouteKey() string          { return "cms_redirect" }

// fixedClock returns a clock pinned to start that can be advanced.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(start time.Time) *fixedClock {
	return &fixedClock{now: start}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
