package provision

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// AccountFinder is the slice of the Accounts store the authenticator needs.
type AccountFinder interface {
	GetByLogin(ctx context.Context, login string) (*Account, error)
}

// Auther verifies presented credentials against the account store and issues
// an authenticated Identity.
type Auther struct {
	store  AccountFinder
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store AccountFinder) *Auther {
	return &Auther{
		store:  store,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Authenticate looks up the login, verifies the password, and checks the
// enabled gate. Every failure branch converges on ErrAuthenticationFailed:
// the caller can never tell an unknown login from a wrong password or a
// disabled account, and the unknown-login path still pays for a bcrypt
// comparison so its latency is comparable.
func (s *Auther) Authenticate(ctx context.Context, login, password string) (Identity, error) {
	account, err := s.store.GetByLogin(ctx, login)
	if err != nil {
		if IsStorageUnavailable(err) {
			return nil, err
		}

		if !goerrors.Is(err, ErrNotFound) {
			s.logger.Error("authenticate account lookup error", "error", err)
		}

		_ = ComparePasswordAndHash(password, dummyHash)
		return nil, ErrAuthenticationFailed
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrAuthenticationFailed
	}

	// Checked after the hash comparison so a disabled account costs the same
	// as a wrong password.
	if !account.Enabled {
		return nil, ErrAuthenticationFailed
	}

	return identityFromAccount(account), nil
}

type authIdentity struct {
	id       string
	username string
	email    string
	role     Role
}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) Email() string    { return a.email }
func (a authIdentity) Role() Role       { return a.role }

var _ Identity = authIdentity{}

func identityFromAccount(account *Account) Identity {
	return authIdentity{
		id:       account.ID.String(),
		username: account.Username,
		email:    account.Email,
		role:     account.Role,
	}
}

// IdentityFromSession rebuilds a request Identity from a validated session.
// The account is re-read so role changes and the enabled gate apply to
// sessions minted before the change.
func (s *Auther) IdentityFromSession(ctx context.Context, accounts AccountStore, session Session) (Identity, error) {
	id, err := session.GetUserUUID()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	account, err := accounts.GetByAccountID(ctx, id)
	if err != nil {
		if IsStorageUnavailable(err) {
			return nil, err
		}
		return nil, ErrAuthenticationFailed
	}

	if !account.Enabled {
		return nil, ErrAuthenticationFailed
	}

	return identityFromAccount(account), nil
}
