package provision

import (
	"context"

	"github.com/google/uuid"
)

// Provisioner is the composed entry point over the invitation lifecycle,
// registration, authentication, and account administration. Transport layers
// call it after AccessPolicy has ruled on the request.
type Provisioner struct {
	invitations InvitationStore
	accounts    AccountStore
	auther      *Auther
	manager     *Manager
	invite      *CreateInvitationHandler
	register    *RegisterAccountHandler
	logger      Logger
}

type ProvisionerOption func(*Provisioner)

// WithInvitationNotifier overrides the notifier used for freshly created
// invitations.
func WithInvitationNotifier(notifier InvitationNotifier) ProvisionerOption {
	return func(p *Provisioner) {
		if notifier != nil {
			p.invite.notifier = notifier
		}
	}
}

// WithProvisionerLogger threads one logger through every component.
func WithProvisionerLogger(logger Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if logger == nil {
			return
		}
		p.logger = logger
		p.auther.WithLogger(logger)
		p.manager.WithLogger(logger)
		p.invite.WithLogger(logger)
		p.register.WithLogger(logger)
	}
}

func NewProvisioner(repo RepositoryManager, opts ...ProvisionerOption) *Provisioner {
	return NewProvisionerWithStores(repo.Invitations(), repo.Accounts(), opts...)
}

// NewProvisionerWithStores wires the components over caller supplied stores,
// for backends other than the bun repositories.
func NewProvisionerWithStores(invitations InvitationStore, accounts AccountStore, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		invitations: invitations,
		accounts:    accounts,
		auther:      NewAuthenticator(accounts),
		manager:     NewManager(accounts),
		invite:      NewCreateInvitationHandler(invitations, nil),
		register:    NewRegisterAccountHandler(invitations, accounts),
		logger:      defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// CreateInvitation issues a fresh invitation token for the email and hands it
// to the configured notifier for out-of-band delivery.
func (p *Provisioner) CreateInvitation(ctx context.Context, email string) (*Invitation, error) {
	var invitation *Invitation
	err := p.invite.Execute(ctx, CreateInvitationMessage{
		Email: email,
		OnResponse: func(inv *Invitation) {
			invitation = inv
		},
	})
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

// RevokeInvitation deletes an outstanding invitation.
func (p *Provisioner) RevokeInvitation(ctx context.Context, token uuid.UUID) error {
	return p.invitations.Revoke(ctx, token)
}

// ListInvitations enumerates outstanding invitations for administration.
func (p *Provisioner) ListInvitations(ctx context.Context) ([]*Invitation, error) {
	return p.invitations.ListAll(ctx)
}

// IsInvitationValid is a read-only probe so a front end can show or hide the
// registration form. It never consumes the token.
func (p *Provisioner) IsInvitationValid(ctx context.Context, token uuid.UUID) (bool, error) {
	return p.invitations.Exists(ctx, token)
}

// Register redeems an invitation token into a new enabled account with the
// default role.
func (p *Provisioner) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	var account *Account
	msg.OnResponse = func(a *Account) {
		account = a
	}
	if err := p.register.Execute(ctx, msg); err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate verifies credentials and returns the request Identity.
func (p *Provisioner) Authenticate(ctx context.Context, login, password string) (Identity, error) {
	return p.auther.Authenticate(ctx, login, password)
}

// Authenticator exposes the underlying credential verifier for transport
// wiring.
func (p *Provisioner) Authenticator() *Auther {
	return p.auther
}

// ListUsers enumerates accounts for administration.
func (p *Provisioner) ListUsers(ctx context.Context) ([]*Account, error) {
	return p.accounts.ListAll(ctx)
}

// GetUser fetches a single account by id.
func (p *Provisioner) GetUser(ctx context.Context, id uuid.UUID) (*Account, error) {
	return p.accounts.GetByAccountID(ctx, id)
}

// DeleteUser removes an account.
func (p *Provisioner) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return p.accounts.DeleteByID(ctx, id)
}

// ChangeRole assigns a role from the closed enumeration to the account.
func (p *Provisioner) ChangeRole(ctx context.Context, id uuid.UUID, role string) (*Account, error) {
	return p.manager.ChangeRole(ctx, id, role)
}

// SetEnabled flips the authentication gate on the account.
func (p *Provisioner) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*Account, error) {
	return p.manager.SetEnabled(ctx, id, enabled)
}

// ListAvailableRoles returns the closed role enumeration.
func (p *Provisioner) ListAvailableRoles() []Role {
	return AvailableRoles()
}
