package auth

import (
	"context"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SetAccountStatusMessage struct {
	AccountID int64 `json:"account_id"`
	Active    bool  `json:"active"`
}

func (e SetAccountStatusMessage) Type() string { return "account.status.set" }

// SetAccountStatusHandler toggles the active flag on an account.
// Deactivating also revokes every live session in the same transaction,
// so the account loses access immediately rather than at next login.
type SetAccountStatusHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewSetAccountStatusHandler(repo RepositoryManager) *SetAccountStatusHandler {
	return &SetAccountStatusHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit status change events.
func (h *SetAccountStatusHandler) WithActivitySink(sink ActivitySink) *SetAccountStatusHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SetAccountStatusHandler) WithLogger(logger Logger) *SetAccountStatusHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, mostly for tests.
func (h *SetAccountStatusHandler) WithClock(now func() time.Time) *SetAccountStatusHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *SetAccountStatusHandler) Execute(ctx context.Context, event SetAccountStatusMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account status change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SetAccountStatusHandler) execute(ctx context.Context, event SetAccountStatusMessage) error {
	if event.AccountID == 0 {
		return goerrors.New("account id is required", goerrors.CategoryValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Accounts().SetActiveTx(ctx, tx, event.AccountID, event.Active); err != nil {
			if goerrors.IsNotFound(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account status")
		}

		if !event.Active {
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account status transaction failed")
	}

	h.recordActivity(ctx, event)

	return nil
}

func (h *SetAccountStatusHandler) recordActivity(ctx context.Context, msg SetAccountStatusMessage) {
	eventType := ActivityEventAccountDeactivated
	if msg.Active {
		eventType = ActivityEventAccountReactivated
	}

	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   strconv.FormatInt(msg.AccountID, 10),
			Type: "account",
		},
		AccountID:  msg.AccountID,
		OccurredAt: h.now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during account status change: %v", err)
	}
}
