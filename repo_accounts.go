package provision

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var UpdateAccountRoleSQL = `UPDATE "accounts" AS "acc"
SET
	"user_role" = ?,
	"updated_at" = current_timestamp
WHERE
	"acc"."id" = ?
RETURNING *;`

var UpdateAccountEnabledSQL = `UPDATE "accounts" AS "acc"
SET
	"enabled" = ?,
	"updated_at" = current_timestamp
WHERE
	"acc"."id" = ?
RETURNING *;`

// AccountStore is the account surface the core components depend on. The
// bun-backed Accounts repository implements it; tests and alternative
// backends can supply their own.
type AccountStore interface {
	Register(ctx context.Context, record *Account) (*Account, error)
	GetByLogin(ctx context.Context, login string) (*Account, error)
	GetByAccountID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAll(ctx context.Context) ([]*Account, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Account, error)
	UpdateEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*Account, error)
}

type Accounts interface {
	repository.Repository[*Account]
	AccountStore

	RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	GetByLoginTx(ctx context.Context, tx bun.IDB, login string) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Register(ctx context.Context, record *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, record)
}

// RegisterTx inserts the account relying on the unique constraint over the
// lowercased username. Uniqueness is enforced at the store, never by a
// check-then-insert.
func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)

	record, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRegistrationConflict
		}
		return nil, translateStoreError(err, "failed to create account")
	}

	return record, nil
}

func (a *accounts) GetByLogin(ctx context.Context, login string) (*Account, error) {
	return a.GetByLoginTx(ctx, a.db, login)
}

func (a *accounts) GetByLoginTx(ctx context.Context, tx bun.IDB, login string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", NormalizeLogin(login)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, translateStoreError(err, "failed to retrieve account by login")
	}

	return record, nil
}

func (a *accounts) GetByAccountID(ctx context.Context, id uuid.UUID) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, translateStoreError(err, "failed to retrieve account")
	}

	return record, nil
}

func (a *accounts) ListAll(ctx context.Context) ([]*Account, error) {
	records := []*Account{}
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, translateStoreError(err, "failed to list accounts")
	}

	return records, nil
}

func (a *accounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Account)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return translateStoreError(err, "failed to delete account")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateRole assumes the role was validated against the closed enumeration
// before this call; see Manager.ChangeRole.
func (a *accounts) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, a.db, UpdateAccountRoleSQL, string(role), id.String())
	if err != nil {
		return nil, translateStoreError(err, "failed to update account role")
	}

	if len(res) == 0 {
		return nil, ErrNotFound
	}

	return res[0], nil
}

func (a *accounts) UpdateEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, a.db, UpdateAccountEnabledSQL, enabled, id.String())
	if err != nil {
		return nil, translateStoreError(err, "failed to update account enabled flag")
	}

	if len(res) == 0 {
		return nil, ErrNotFound
	}

	return res[0], nil
}
