package provision

import (
	"context"

	"github.com/google/uuid"
)

// Manager performs administrative mutation of an account's role and enabled
// flag. It trusts its caller: authorization must already have passed at the
// transport boundary before these run.
type Manager struct {
	accounts AccountStore
	logger   Logger
}

func NewManager(accounts AccountStore) *Manager {
	return &Manager{
		accounts: accounts,
		logger:   defLogger{},
	}
}

func (m *Manager) WithLogger(l Logger) *Manager {
	if l != nil {
		m.logger = l
	}
	return m
}

// ChangeRole validates the role against the closed enumeration before any
// store mutation. An unrecognized role never reaches the store.
func (m *Manager) ChangeRole(ctx context.Context, accountID uuid.UUID, newRole string) (*Account, error) {
	role, ok := ParseRole(newRole)
	if !ok {
		return nil, ErrInvalidRole
	}

	account, err := m.accounts.UpdateRole(ctx, accountID, role)
	if err != nil {
		return nil, err
	}

	m.logger.Info("account role changed", "account_id", accountID.String(), "role", newRole)
	return account, nil
}

// SetEnabled toggles the authentication gate independent of the role.
func (m *Manager) SetEnabled(ctx context.Context, accountID uuid.UUID, enabled bool) (*Account, error) {
	account, err := m.accounts.UpdateEnabled(ctx, accountID, enabled)
	if err != nil {
		return nil, err
	}

	m.logger.Info("account enabled flag changed", "account_id", accountID.String(), "enabled", enabled)
	return account, nil
}
