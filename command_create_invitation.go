package provision

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// CreateInvitationMessage is an administrator's invite-by-email action.
type CreateInvitationMessage struct {
	Email      string `json:"email" doc:"Email the invitation is issued for."`
	OnResponse func(invitation *Invitation)
}

func (e CreateInvitationMessage) Type() string { return "invitation.create" }

// Validate will run validation rules
func (e CreateInvitationMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(
			&e.Email,
			validation.Required,
			is.Email,
		),
	)
}

type CreateInvitationHandler struct {
	invitations InvitationStore
	notifier    InvitationNotifier
	logger      Logger
}

func NewCreateInvitationHandler(invitations InvitationStore, notifier InvitationNotifier) *CreateInvitationHandler {
	if notifier == nil {
		notifier = logNotifier{logger: defLogger{}}
	}
	return &CreateInvitationHandler{
		invitations: invitations,
		notifier:    notifier,
		logger:      defLogger{},
	}
}

func (h *CreateInvitationHandler) WithLogger(l Logger) *CreateInvitationHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *CreateInvitationHandler) Execute(ctx context.Context, event CreateInvitationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateInvitationHandler) execute(ctx context.Context, event CreateInvitationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invitation payload")
	}

	invitation, err := h.invitations.CreateForEmail(ctx, event.Email)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create invitation")
	}

	// Delivery happens out-of-band; a notifier failure does not undo the
	// invitation, the admin can still see the token in the listing.
	go func() {
		if err := h.notifier.NotifyInvitation(context.WithoutCancel(ctx), invitation); err != nil {
			h.logger.Error("invitation notifier error", "error", err)
		}
	}()

	if event.OnResponse != nil {
		event.OnResponse(invitation)
	}

	return nil
}
