package provision

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeInvitationSQL locates and deletes an invitation in a single
// statement. Concurrent consumers of the same token race on the delete and
// exactly one of them gets the row back.
var ConsumeInvitationSQL = `DELETE FROM "invitations" AS "inv"
WHERE
	"inv"."token" = ?
RETURNING *;`

// InvitationStore is the invitation lifecycle surface the core components
// depend on. The bun-backed Invitations repository implements it; tests and
// alternative backends can supply their own.
type InvitationStore interface {
	CreateForEmail(ctx context.Context, email string) (*Invitation, error)
	Exists(ctx context.Context, token uuid.UUID) (bool, error)
	Consume(ctx context.Context, token uuid.UUID) (*Invitation, error)
	Revoke(ctx context.Context, token uuid.UUID) error
	ListAll(ctx context.Context) ([]*Invitation, error)
}

type Invitations interface {
	repository.Repository[*Invitation]
	InvitationStore

	CreateForEmailTx(ctx context.Context, tx bun.IDB, email string) (*Invitation, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, token uuid.UUID) (*Invitation, error)
}

type invitations struct {
	repository.Repository[*Invitation]
	db *bun.DB
}

var (
	_ Invitations                        = (*invitations)(nil)
	_ repository.Repository[*Invitation] = (*invitations)(nil)
)

func NewInvitationsRepository(db *bun.DB) Invitations {
	repo := repository.NewRepository[*Invitation](db, repository.ModelHandlers[*Invitation]{
		NewRecord: func() *Invitation { return &Invitation{} },
		GetID: func(i *Invitation) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.Token
		},
		SetID: func(i *Invitation, id uuid.UUID) {
			if i != nil {
				i.Token = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &invitations{
		Repository: repo,
		db:         db,
	}
}

func (a *invitations) CreateForEmail(ctx context.Context, email string) (*Invitation, error) {
	return a.CreateForEmailTx(ctx, a.db, email)
}

// CreateForEmailTx issues a fresh token for the email. The unique constraint
// on email enforces the one-pending-invitation-per-email policy at the store,
// not with a check-then-insert.
func (a *invitations) CreateForEmailTx(ctx context.Context, tx bun.IDB, email string) (*Invitation, error) {
	record := &Invitation{Email: email}
	prepareInvitationDefaults(record)

	record, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePendingInvitation
		}
		return nil, translateStoreError(err, "failed to create invitation")
	}

	return record, nil
}

// Exists is a side-effect free validity probe. It must never consume.
func (a *invitations) Exists(ctx context.Context, token uuid.UUID) (bool, error) {
	count, err := a.db.NewSelect().
		Model((*Invitation)(nil)).
		Where("?TableAlias.token = ?", token).
		Count(ctx)

	if err != nil {
		return false, translateStoreError(err, "failed to check invitation")
	}

	return count > 0, nil
}

func (a *invitations) Consume(ctx context.Context, token uuid.UUID) (*Invitation, error) {
	return a.ConsumeTx(ctx, a.db, token)
}

func (a *invitations) ConsumeTx(ctx context.Context, tx bun.IDB, token uuid.UUID) (*Invitation, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeInvitationSQL, token.String())
	if err != nil {
		return nil, translateStoreError(err, "failed to consume invitation")
	}

	if len(res) == 0 {
		return nil, ErrNotFound
	}

	return res[0], nil
}

func (a *invitations) Revoke(ctx context.Context, token uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Invitation)(nil)).
		Where("?TableAlias.token = ?", token).
		Exec(ctx)

	if err != nil {
		return translateStoreError(err, "failed to revoke invitation")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (a *invitations) ListAll(ctx context.Context) ([]*Invitation, error) {
	records := []*Invitation{}
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, translateStoreError(err, "failed to list invitations")
	}

	return records, nil
}
