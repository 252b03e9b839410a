package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ThrottleConfig tunes the login failure limiter. Exact lockout policy is
// an operations decision, so everything is a knob.
type ThrottleConfig struct {
	// Threshold is how many consecutive failures are tolerated before
	// backoff kicks in.
	Threshold int
	// BaseDelay is the first backoff window; it doubles per further
	// failure up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Window resets the counter when an identifier stays quiet this long.
	Window time.Duration
}

// DefaultThrottleConfig matches the cooldown behavior the CMS shipped
// with: five attempts, then exponential backoff starting at one second.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		Threshold: 5,
		BaseDelay: time.Second,
		MaxDelay:  15 * time.Minute,
		Window:    24 * time.Hour,
	}
}

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	retryAt     time.Time
}

// ThrottledAuthenticator decorates a CredentialAuthenticator with a per
// identifier failure counter and exponential backoff. It keeps rate
// limiting out of the Authenticator itself, which stays policy free.
type ThrottledAuthenticator struct {
	next CredentialAuthenticator
	cfg  ThrottleConfig

	mu       sync.Mutex
	attempts map[string]*attemptRecord

	logger Logger
	sink   ActivitySink
	now    func() time.Time
}

var _ CredentialAuthenticator = (*ThrottledAuthenticator)(nil)

// NewThrottledAuthenticator wraps next with the given throttle policy.
func NewThrottledAuthenticator(next CredentialAuthenticator, cfg ThrottleConfig) *ThrottledAuthenticator {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThrottleConfig().Threshold
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultThrottleConfig().BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = DefaultThrottleConfig().MaxDelay
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultThrottleConfig().Window
	}

	return &ThrottledAuthenticator{
		next:     next,
		cfg:      cfg,
		attempts: map[string]*attemptRecord{},
		logger:   defLogger{},
		sink:     noopActivitySink{},
		now:      time.Now,
	}
}

func (t *ThrottledAuthenticator) WithLogger(logger Logger) *ThrottledAuthenticator {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// WithActivitySink configures an ActivitySink for throttle events.
func (t *ThrottledAuthenticator) WithActivitySink(sink ActivitySink) *ThrottledAuthenticator {
	t.sink = normalizeActivitySink(sink)
	return t
}

// WithClock injects a custom clock (useful for tests).
func (t *ThrottledAuthenticator) WithClock(clock func() time.Time) *ThrottledAuthenticator {
	if clock != nil {
		t.now = clock
	}
	return t
}

// Authenticate rejects attempts inside an identifier's backoff window with
// AuthThrottled, otherwise defers to the wrapped authenticator. Only
// credential mismatches count toward the limit: malformed requests never
// reached the store, and an inactive-account result proved knowledge of
// the secret.
func (t *ThrottledAuthenticator) Authenticate(ctx context.Context, identifier, secret string) (AuthResult, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))

	if key != "" && t.blocked(key) {
		t.logger.Warn("login throttled", "identifier", key, "error", ErrTooManyLoginAttempts)
		recordActivity(ctx, t.sink, t.logger, ActivityEvent{
			EventType: ActivityEventLoginThrottled,
			Actor:     ActorRef{Type: "unknown"},
			Metadata:  map[string]any{"identifier": key},
		})
		return AuthResult{Status: AuthThrottled}, nil
	}

	result, err := t.next.Authenticate(ctx, identifier, secret)
	if err != nil {
		return result, err
	}

	if key == "" {
		return result, nil
	}

	switch result.Status {
	case AuthInvalidCredentials:
		t.recordFailure(key)
	case AuthSuccess:
		t.reset(key)
	}

	return result, nil
}

// Failures returns the current consecutive failure count for identifier.
func (t *ThrottledAuthenticator) Failures(identifier string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.attempts[strings.ToLower(strings.TrimSpace(identifier))]
	if !ok {
		return 0
	}
	return record.failures
}

func (t *ThrottledAuthenticator) blocked(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.attempts[key]
	if !ok {
		return false
	}

	now := t.now()
	if now.Sub(record.lastFailure) > t.cfg.Window {
		delete(t.attempts, key)
		return false
	}

	return now.Before(record.retryAt)
}

func (t *ThrottledAuthenticator) recordFailure(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	record, ok := t.attempts[key]
	if !ok || now.Sub(record.lastFailure) > t.cfg.Window {
		record = &attemptRecord{}
		t.attempts[key] = record
	}

	record.failures++
	record.lastFailure = now

	if record.failures >= t.cfg.Threshold {
		delay := t.cfg.BaseDelay << uint(record.failures-t.cfg.Threshold)
		if delay > t.cfg.MaxDelay || delay <= 0 {
			delay = t.cfg.MaxDelay
		}
		record.retryAt = now.Add(delay)
	}
}

func (t *ThrottledAuthenticator) reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, key)
}
