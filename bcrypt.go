package provision

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash. The plaintext is never stored
// or logged; a hashing failure is surfaced as an internal error, never
// downgraded to a weaker scheme.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. A malformed stored hash behaves like a mismatch; the
// anomaly is logged but never surfaced to the caller.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if !goerrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			defLogger{}.Error("stored password hash is malformed", "error", err)
		}
		return ErrAuthenticationFailed
	}
	return nil
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

// dummyHash is compared against when a login does not resolve to an account,
// keeping the unknown-login path on the same bcrypt cost as a real mismatch.
var dummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), passwordHashCost())
	if err != nil {
		panic(err)
	}
	return string(h)
}()
