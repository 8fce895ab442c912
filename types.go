package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the authenticated principal attached to a request after a
// successful credential verification. It lives for the request only; the
// persisted record stays in the Accounts store.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() Role
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetRole() Role
	GetIssuer() string
	GetIssuedAt() *time.Time
}

// Authenticator verifies presented credentials and issues identities.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (Identity, error)
}

// TokenService signs and validates session tokens minted after a successful
// Authenticate. This is session establishment, not OAuth/OIDC issuance.
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(token string) (Session, error)
}

// LoginPayload is the credential presentation accepted by the transport.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// Config holds the options the session and transport boundary needs at
// startup. It is passed in explicitly; nothing here is global mutable state.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// InvitationNotifier delivers a freshly created invitation token out-of-band.
// The core only guarantees the token exists; delivery is the collaborator's
// problem.
type InvitationNotifier interface {
	NotifyInvitation(ctx context.Context, invitation *Invitation) error
}

// Middleware is the surface the transport uses to guard routes.
type Middleware interface {
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] PROVISION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] PROVISION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] PROVISION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
