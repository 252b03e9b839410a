package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ProvisionAccountMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Disabled bool   `json:"disabled"`
}

func (e ProvisionAccountMessage) Type() string { return "account.provision" }

func (e ProvisionAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required, validation.Length(2, 64)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
	)
}

// ProvisionAccountHandler creates a new account with a hashed password.
// There is no self service registration; an operator with admin access
// runs this for each staff member.
type ProvisionAccountHandler struct {
	repo     RepositoryManager
	hasher   *Hasher
	activity ActivitySink
	logger   Logger
}

func NewProvisionAccountHandler(repo RepositoryManager, hasher *Hasher) *ProvisionAccountHandler {
	if hasher == nil {
		hasher = NewHasher(DefaultBcryptCost)
	}
	return &ProvisionAccountHandler{
		repo:     repo,
		hasher:   hasher,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit provisioning events.
func (h *ProvisionAccountHandler) WithActivitySink(sink ActivitySink) *ProvisionAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ProvisionAccountHandler) WithLogger(logger Logger) *ProvisionAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ProvisionAccountHandler) Execute(ctx context.Context, event ProvisionAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProvisionAccountHandler) execute(ctx context.Context, event ProvisionAccountMessage) (*Account, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid account provisioning request")
	}

	account := &Account{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := h.hasher.Hash(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account.Username = strings.TrimSpace(event.Username)
		account.Email = strings.ToLower(strings.TrimSpace(event.Email))
		account.PasswordHash = hash
		account.Role = Role(event.Role).Normalize()
		account.Active = !event.Disabled

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account provisioning transaction failed")
	}

	h.recordActivity(ctx, account)

	return account, nil
}

func (h *ProvisionAccountHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventAccountProvisioned,
		Actor: ActorRef{
			ID:   strconv.FormatInt(account.ID, 10),
			Type: "account",
		},
		AccountID: account.ID,
		Metadata: map[string]any{
			"username": account.Username,
			"role":     string(account.Role),
			"active":   account.Active,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during account provisioning: %v", err)
	}
}
