package provision

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// RegisterAccountMessage redeems an invitation token into a new account.
// UseHashid derives the account id deterministically from the login name,
// for deployments that want stable ids across environments; invitation
// tokens themselves are always random.
type RegisterAccountMessage struct {
	Token      string `json:"token" doc:"Invitation token being redeemed."`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UseHashid  bool   `json:"use_hashid,omitempty"`
	OnResponse func(account *Account)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate will run validation rules
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required, is.UUIDv4),
		validation.Field(&e.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

type RegisterAccountHandler struct {
	invitations InvitationStore
	accounts    AccountStore
	logger      Logger
}

func NewRegisterAccountHandler(invitations InvitationStore, accounts AccountStore) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		invitations: invitations,
		accounts:    accounts,
		logger:      defLogger{},
	}
}

func (h *RegisterAccountHandler) WithLogger(l Logger) *RegisterAccountHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	token, err := uuid.Parse(event.Token)
	if err != nil {
		return ErrInvitationInvalid
	}

	// Hash before touching the store: bcrypt is CPU-bound and must not run
	// while the invitation row is being held.
	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// Atomic find-and-delete. If two registrations race on the same token,
	// exactly one gets the row; the other fails here with no account written.
	if _, err := h.invitations.Consume(ctx, token); err != nil {
		if goerrors.Is(err, ErrNotFound) {
			return ErrInvitationInvalid
		}
		if IsStorageUnavailable(err) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume invitation")
	}

	account := &Account{
		Username:     event.Username,
		Email:        event.Email,
		PasswordHash: hash,
		Role:         RoleUser,
		Enabled:      true,
	}

	if event.UseHashid {
		// Keyed off the login since usernames are unique; emails are not.
		if id, err := hashid.NewUUID(NormalizeLogin(event.Username)); err == nil {
			account.ID = id
		}
	}

	// The invitation is already gone. A login conflict here does not refund
	// it; the administrator has to issue a new one.
	account, err = h.accounts.Register(ctx, account)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}
