package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is a persisted identity record. Accounts are created by an
// out-of-band provisioning process and are soft-disabled (Active=false)
// rather than deleted while sessions may still reference them.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Active        bool       `bun:"active,notnull,default:true" json:"active"`
	Role          Role       `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	LastLogin     *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
}

// Session is a server issued, time bounded proof that a specific account
// authenticated. The token is opaque; everything needed to judge validity
// lives in this row plus a fresh read of the bound account.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	AccountID     int64      `bun:"account_id,notnull" json:"account_id,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"created_at,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Revoked       bool       `bun:"revoked,notnull,default:false" json:"revoked"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero" json:"revoked_at,omitempty"`
}

// LiveAt reports whether the session itself is still valid at t. It does
// not cover the account's active flag; SessionManager.Validate re-checks
// that against the store on every call.
func (s *Session) LiveAt(t time.Time) bool {
	if s == nil || s.Revoked {
		return false
	}
	return t.Before(s.ExpiresAt)
}

// Grant is the positive outcome of validating a session: the bound account
// and its effective role at validation time.
type Grant struct {
	AccountID int64
	Role      Role
}
