package auth

import (
	"context"
)

// DenyReason explains why the guard refused access.
type DenyReason string

const (
	// DenyNoSession means the token was missing, unknown, revoked, or
	// expired. Callers should send the user to the login entry point.
	DenyNoSession DenyReason = "no_session"
	// DenyInsufficientRole means the session is valid but the account's
	// role sits below the required minimum.
	DenyInsufficientRole DenyReason = "insufficient_role"
)

// Decision is the outcome of a guard check. AccountID and Role are set
// when Allowed is true; Reason is set when it is false.
type Decision struct {
	Allowed   bool
	AccountID int64
	Role      Role
	Reason    DenyReason
}

// Guard gates protected operations on a valid session and sufficient role.
// Every protected entry point calls Require before doing anything; no
// client supplied role or id is ever trusted.
type Guard struct {
	sessions *SessionManager
	logger   Logger
}

// NewGuard returns a Guard backed by the given session manager.
func NewGuard(sessions *SessionManager) *Guard {
	return &Guard{
		sessions: sessions,
		logger:   defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Require validates the session token and checks the bound account's role
// against minimum. A route guarded for editor is satisfied by editor or
// admin. The error return is reserved for store failures.
func (g *Guard) Require(ctx context.Context, token string, minimum Role) (Decision, error) {
	grant, ok, err := g.sessions.Validate(ctx, token)
	if err != nil {
		return Decision{}, err
	}

	if !ok {
		return Decision{Reason: DenyNoSession}, nil
	}

	if !grant.Role.AtLeast(minimum) {
		g.logger.Debug("access denied", "account_id", grant.AccountID, "role", grant.Role, "minimum", minimum)
		return Decision{
			Reason:    DenyInsufficientRole,
			AccountID: grant.AccountID,
			Role:      grant.Role,
		}, nil
	}

	return Decision{
		Allowed:   true,
		AccountID: grant.AccountID,
		Role:      grant.Role,
	}, nil
}
