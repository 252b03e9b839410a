package auth

import (
	"context"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ChangePasswordMessage struct {
	AccountID int64  `json:"account_id"`
	Password  string `json:"password"`
	// KeepSessions leaves existing sessions alive. The default revokes
	// every session for the account so stolen cookies die with the old
	// password.
	KeepSessions bool `json:"keep_sessions"`
}

func (e ChangePasswordMessage) Type() string { return "account.password.change" }

func (e ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.AccountID, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
	)
}

type ChangePasswordHandler struct {
	repo     RepositoryManager
	hasher   *Hasher
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewChangePasswordHandler(repo RepositoryManager, hasher *Hasher) *ChangePasswordHandler {
	if hasher == nil {
		hasher = NewHasher(DefaultBcryptCost)
	}
	return &ChangePasswordHandler{
		repo:     repo,
		hasher:   hasher,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit password change events.
func (h *ChangePasswordHandler) WithActivitySink(sink ActivitySink) *ChangePasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, mostly for tests.
func (h *ChangePasswordHandler) WithClock(now func() time.Time) *ChangePasswordHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password change request")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := h.hasher.Hash(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		if err := h.repo.Accounts().UpdatePasswordTx(ctx, tx, event.AccountID, hash); err != nil {
			if goerrors.IsNotFound(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}

		if !event.KeepSessions {
			if err := h.repo.Sessions().RevokeAllTx(ctx, tx, event.AccountID, h.now()); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke account sessions")
			}
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password change transaction failed")
	}

	h.recordActivity(ctx, event)

	return nil
}

func (h *ChangePasswordHandler) recordActivity(ctx context.Context, msg ChangePasswordMessage) {
	event := ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		Actor: ActorRef{
			ID:   strconv.FormatInt(msg.AccountID, 10),
			Type: "account",
		},
		AccountID: msg.AccountID,
		Metadata: map[string]any{
			"sessions_kept": msg.KeepSessions,
		},
		OccurredAt: h.now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password change: %v", err)
	}
}
