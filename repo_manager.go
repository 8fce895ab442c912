package provision

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Invitations() Invitations
	Accounts() Accounts
}

type mngr struct {
	db          *bun.DB
	invitations Invitations
	accounts    Accounts
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:          db,
		invitations: NewInvitationsRepository(db),
		accounts:    NewAccountsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.invitations == nil {
		return errors.New("repository invitations should be initialized")
	}

	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Invitations() Invitations {
	return m.invitations
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}
