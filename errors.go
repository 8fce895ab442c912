package provision

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Stable text codes surfaced to transport layers alongside each error kind.
const (
	TextCodeInvitationInvalid    = "INVITATION_INVALID"
	TextCodeDuplicateInvitation  = "DUPLICATE_PENDING_INVITATION"
	TextCodeRegistrationConflict = "REGISTRATION_CONFLICT"
	TextCodeInvalidCreds         = "INVALID_CREDENTIALS"
	TextCodeAccessDenied         = "ACCESS_DENIED"
	TextCodeInvalidRole          = "INVALID_ROLE"
	TextCodeNotFound             = "NOT_FOUND"
	TextCodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	TextCodeSessionDecodeError   = "SESSION_DECODE_ERROR"
	TextCodeEmptyPassword        = "EMPTY_PASSWORD"
)

// ErrInvitationInvalid is returned when a registration names a token that is
// absent or was already consumed.
var ErrInvitationInvalid = goerrors.New("invitation token is invalid or already used", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvitationInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicatePendingInvitation is returned when an invite is requested for an
// email that already has an outstanding unconsumed invitation.
var ErrDuplicatePendingInvitation = goerrors.New("a pending invitation already exists for this email", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateInvitation).
	WithCode(goerrors.CodeConflict)

// ErrRegistrationConflict is returned when the chosen login name is already
// taken at account creation time. The invitation consumed in the same flow is
// not refunded.
var ErrRegistrationConflict = goerrors.New("login name is already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeRegistrationConflict).
	WithCode(goerrors.CodeConflict)

// ErrAuthenticationFailed covers unknown login, wrong password, and disabled
// account. Deliberately undifferentiated so callers cannot enumerate accounts.
var ErrAuthenticationFailed = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccessDenied is returned when an authenticated principal lacks the role a
// matched policy rule requires.
var ErrAccessDenied = goerrors.New("insufficient role for this resource", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied)

// ErrInvalidRole is returned when a role change names a role outside the
// closed enumeration. Validation happens before any store mutation.
var ErrInvalidRole = goerrors.New("unrecognized role", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrNotFound is returned by administrative operations that reference an
// account or invitation that does not exist.
var ErrNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound)

// ErrStorageUnavailable is a transient backing store failure. Callers may
// retry; the core never retries internally.
var ErrStorageUnavailable = goerrors.New("backing store unavailable", goerrors.CategoryOperation).
	WithTextCode(TextCodeStorageUnavailable)

// ErrUnableToDecodeSession signals a session token that failed validation.
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// IsStorageUnavailable reports whether err is the transient storage kind.
func IsStorageUnavailable(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeStorageUnavailable
	}
	return false
}

// isUniqueViolation matches the unique constraint errors raised by the
// sqlite and postgres drivers the repository layer runs against. The
// repository wraps driver errors in rich errors whose Error() prints only
// their own message, so every link of the chain is inspected; the driver
// text usually lives on the leaf.
func isUniqueViolation(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		msg := err.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "duplicate key value") {
			return true
		}
	}
	return false
}

// translateStoreError maps low-level persistence failures to the closest
// stable kind. Integrity violations are never silently masked; anything
// unrecognized is wrapped and propagated as-is.
func translateStoreError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if goerrors.Is(err, context.DeadlineExceeded) || goerrors.Is(err, sql.ErrConnDone) {
		return ErrStorageUnavailable
	}

	if repository.IsRecordNotFound(err) {
		return ErrNotFound
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
