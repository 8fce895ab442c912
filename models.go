package provision

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Invitation authorizes exactly one account registration for a specific
// email. The token doubles as the primary key; a row that exists is a valid,
// unconsumed invitation. Consumption deletes the row.
type Invitation struct {
	bun.BaseModel `bun:"table:invitations,alias:inv"`
	Token         uuid.UUID  `bun:"token,pk,nullzero,type:uuid" json:"token,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Account is the persisted user record. Username is stored lowercased so the
// unique constraint enforces case-insensitive login uniqueness at the store.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Enabled       bool       `bun:"enabled,notnull,default:true" json:"enabled"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeLogin canonicalizes a login name for storage and lookup.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

func prepareInvitationDefaults(record *Invitation) {
	if record == nil {
		return
	}

	if record.Token == uuid.Nil {
		record.Token = uuid.New()
	}
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.Username = NormalizeLogin(record.Username)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
