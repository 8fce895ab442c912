package provision

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenSQLite opens a bun handle over the sqlite shim driver. Meant for
// embedded deployments and test harnesses; production setups can hand
// NewRepositoryManager any *bun.DB they already manage.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates the invitation and account tables if missing. The
// unique indexes back the store-level invariants: one pending invitation per
// email, case-insensitive login uniqueness.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Invitation)(nil),
		(*Account)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
