package auth

import (
	"context"
	"strconv"
)

// LoginRequest carries a submitted login attempt.
type LoginRequest struct {
	Identifier string
	Secret     string
	Remember   bool
}

// LoginResult is the outcome of a login attempt. Session is set only when
// Result.Status is AuthSuccess.
type LoginResult struct {
	Result  AuthResult
	Session *Session
}

// LoginFlow orchestrates the Authenticator and SessionManager into the
// observable login/logout behavior. A request starts anonymous; a
// successful submit authenticates it and hands back a session token, any
// failure drops it straight back to anonymous with no session created, and
// logout revokes the session server side rather than merely forgetting it
// on the client.
type LoginFlow struct {
	auth     CredentialAuthenticator
	sessions *SessionManager
	logger   Logger
	sink     ActivitySink
}

// NewLoginFlow returns a LoginFlow over the given authenticator and
// session manager.
func NewLoginFlow(auth CredentialAuthenticator, sessions *SessionManager) *LoginFlow {
	return &LoginFlow{
		auth:     auth,
		sessions: sessions,
		logger:   defLogger{},
		sink:     noopActivitySink{},
	}
}

func (f *LoginFlow) WithLogger(logger Logger) *LoginFlow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// WithActivitySink configures an ActivitySink for flow events.
func (f *LoginFlow) WithActivitySink(sink ActivitySink) *LoginFlow {
	f.sink = normalizeActivitySink(sink)
	return f
}

// Login authenticates req and, on success, creates a session. Failures
// produce no session and no partial state: a session either exists fully or
// not at all. The error return is reserved for store failures, in which
// case no session was created either.
func (f *LoginFlow) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	result, err := f.auth.Authenticate(ctx, req.Identifier, req.Secret)
	if err != nil {
		return LoginResult{}, err
	}

	if !result.OK() {
		return LoginResult{Result: result}, nil
	}

	session, err := f.sessions.Create(ctx, result.AccountID, req.Remember)
	if err != nil {
		f.logger.Error("login succeeded but session creation failed", "account_id", result.AccountID, "error", err)
		return LoginResult{}, err
	}

	return LoginResult{Result: result, Session: session}, nil
}

// Logout revokes the session for token. Calling it without a valid
// session, or twice with the same token, is a no-op success.
func (f *LoginFlow) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := f.sessions.Revoke(ctx, token); err != nil {
		return err
	}

	recordActivity(ctx, f.sink, f.logger, ActivityEvent{
		EventType: ActivityEventLogout,
	})

	return nil
}

// LogoutAccount revokes every session for an account id. Exposed for admin
// tooling ("sign out everywhere").
func (f *LoginFlow) LogoutAccount(ctx context.Context, accountID int64) error {
	if err := f.sessions.RevokeAll(ctx, accountID); err != nil {
		return err
	}

	recordActivity(ctx, f.sink, f.logger, ActivityEvent{
		EventType: ActivityEventLogout,
		Actor:     ActorRef{ID: strconv.FormatInt(accountID, 10), Type: "account"},
		AccountID: accountID,
		Metadata:  map[string]any{"scope": "all"},
	})

	return nil
}
