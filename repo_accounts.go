package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Accounts is the account repository. It implements CredentialStore for
// the Authenticator and SessionManager and adds the write paths used by
// the provisioning/administration commands.
//
// Account ids are plain integers assigned by the database, so this
// repository speaks Bun directly instead of going through the uuid keyed
// generic repository the sessions use.
type Accounts interface {
	CredentialStore

	Create(ctx context.Context, record *Account) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	GetActiveFlag(ctx context.Context, id int64) (bool, error)
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id int64, passwordHash string) error
	SetActiveTx(ctx context.Context, tx bun.IDB, id int64, active bool) error
}

type accounts struct {
	db *bun.DB
}

var (
	_ Accounts        = (*accounts)(nil)
	_ CredentialStore = (*accounts)(nil)
)

// NewAccountsRepository returns a Bun backed Accounts repository.
func NewAccountsRepository(db *bun.DB) Accounts {
	return &accounts{db: db}
}

// GetByIdentifier looks an account up by username first, then by email
// when the identifier parses as an address. Returns ErrAccountNotFound
// when neither column matches.
func (a *accounts) GetByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	return a.getByIdentifierTx(ctx, a.db, identifier)
}

func (a *accounts) getByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*Account, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, ErrAccountNotFound
	}

	columns := []string{"username"}
	if isEmail(trimmed) {
		columns = append(columns, "email")
	}

	for _, column := range columns {
		record := &Account{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias."+column+" = ?", trimmed).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, accountNotFound(map[string]any{
		"identifier": trimmed,
	})
}

func (a *accounts) GetByID(ctx context.Context, id int64) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountNotFound(map[string]any{
				"id": id,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetActiveFlag(ctx context.Context, id int64) (bool, error) {
	record, err := a.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return record.Active, nil
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)

	res, err := tx.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}

	if record.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			record.ID = id
		}
	}

	return record, nil
}

// UpdateLastLogin stamps the account's last successful login. Only touched
// on success; failed attempts never write through this path.
func (a *accounts) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := a.db.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET "last_login" = ?
		WHERE "acc"."id" = ?;
	`, at, id).Exec(ctx)

	return err
}

func (a *accounts) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id int64, passwordHash string) error {
	res, err := tx.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET "password_hash" = ?
		WHERE "acc"."id" = ?;
	`, passwordHash, id).Exec(ctx)
	if err != nil {
		return err
	}

	return requireRowsAffected(res, id)
}

func (a *accounts) SetActiveTx(ctx context.Context, tx bun.IDB, id int64, active bool) error {
	res, err := tx.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET "active" = ?
		WHERE "acc"."id" = ?;
	`, active, id).Exec(ctx)
	if err != nil {
		return err
	}

	return requireRowsAffected(res, id)
}

func requireRowsAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return accountNotFound(map[string]any{
			"id": id,
		})
	}

	return nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleViewer
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
}

func isEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}
