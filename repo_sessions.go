package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions is the session repository. The SessionManager consumes it
// through the narrower SessionStore interface; commands additionally use
// the Tx variants so password changes and deactivations can revoke
// sessions in the same transaction as the account write.
type Sessions interface {
	repository.Repository[*Session]

	Insert(ctx context.Context, session *Session) error
	InsertTx(ctx context.Context, tx bun.IDB, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string, at time.Time) error
	RevokeTx(ctx context.Context, tx bun.IDB, token string, at time.Time) error
	RevokeAll(ctx context.Context, accountID int64, at time.Time) error
	RevokeAllTx(ctx context.Context, tx bun.IDB, accountID int64, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessions struct {
	repository.Repository[*Session]
	db *bun.DB
}

var (
	_ Sessions     = (*sessions)(nil)
	_ SessionStore = (*sessions)(nil)
)

// NewSessionsRepository returns a Bun backed Sessions repository.
func NewSessionsRepository(db *bun.DB) Sessions {
	repo := repository.NewRepository[*Session](db, repository.ModelHandlers[*Session]{
		NewRecord: func() *Session { return &Session{} },
		GetID: func(s *Session) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Session, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &sessions{
		Repository: repo,
		db:         db,
	}
}

func (r *sessions) Insert(ctx context.Context, session *Session) error {
	return r.InsertTx(ctx, r.db, session)
}

func (r *sessions) InsertTx(ctx context.Context, tx bun.IDB, session *Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	_, err := r.Repository.CreateTx(ctx, tx, session)
	return err
}

func (r *sessions) GetByToken(ctx context.Context, token string) (*Session, error) {
	record := &Session{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *sessions) Revoke(ctx context.Context, token string, at time.Time) error {
	return r.RevokeTx(ctx, r.db, token, at)
}

// RevokeTx flips the revoked flag for one token. Matching zero rows is
// fine: revocation is idempotent and unknown tokens are not an error.
func (r *sessions) RevokeTx(ctx context.Context, tx bun.IDB, token string, at time.Time) error {
	_, err := tx.NewRaw(`
		UPDATE "sessions" AS "sess"
		SET "revoked" = TRUE, "revoked_at" = ?
		WHERE "sess"."token" = ? AND "sess"."revoked" = FALSE;
	`, at, token).Exec(ctx)

	return err
}

func (r *sessions) RevokeAll(ctx context.Context, accountID int64, at time.Time) error {
	return r.RevokeAllTx(ctx, r.db, accountID, at)
}

func (r *sessions) RevokeAllTx(ctx context.Context, tx bun.IDB, accountID int64, at time.Time) error {
	_, err := tx.NewRaw(`
		UPDATE "sessions" AS "sess"
		SET "revoked" = TRUE, "revoked_at" = ?
		WHERE "sess"."account_id" = ? AND "sess"."revoked" = FALSE;
	`, at, accountID).Exec(ctx)

	return err
}

// DeleteExpired drops sessions that expired before the given time. Meant
// for a periodic cleanup job; validity checks never depend on it.
func (r *sessions) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("?TableAlias.expires_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
