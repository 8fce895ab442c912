package provision

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator is the session/transport boundary: it turns an inbound
// request into either no principal or an authenticated Identity, asks the
// AccessPolicy for a verdict, and enforces it at the protocol layer.
type RouteAuthenticator struct {
	auther         *Auther
	accounts       AccountStore
	tokens         TokenService
	policy         *AccessPolicy
	cfg            Config
	tokenSources   []tokenSource
	cookieDuration time.Duration
	Logger         Logger
	ErrorHandler   func(c router.Context, err error) error
}

// tokenSource is one parsed entry of Config.GetTokenLookup, e.g.
// "cookie:session" or "header:Authorization".
type tokenSource struct {
	kind string
	name string
}

func parseTokenLookup(lookup string) []tokenSource {
	sources := []tokenSource{}
	for _, part := range strings.Split(lookup, ",") {
		kind, name, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" {
			continue
		}
		sources = append(sources, tokenSource{kind: kind, name: name})
	}
	return sources
}

func NewHTTPAuthenticator(auther *Auther, accounts AccountStore, policy *AccessPolicy, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	sources := parseTokenLookup(cfg.GetTokenLookup())
	if len(sources) == 0 {
		sources = []tokenSource{
			{kind: "cookie", name: cfg.GetContextKey()},
			{kind: "header", name: "Authorization"},
		}
	}

	a := &RouteAuthenticator{
		auther:         auther,
		accounts:       accounts,
		tokens:         NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenExpiration(), cfg.GetIssuer(), nil),
		policy:         policy,
		cfg:            cfg,
		tokenSources:   sources,
		cookieDuration: cookieDuration,
		Logger:         defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// TokenService returns the session token signer used by this boundary.
func (a *RouteAuthenticator) TokenService() TokenService {
	return a.tokens
}

// ProtectedRoute evaluates the access policy on every request. Routes behind
// open rules pass through without a session; guarded rules require a valid
// session whose account still satisfies the matched rule.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.ErrorHandler
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			identity, err := a.identityFromRequest(c)
			if err != nil {
				return errorHandler(c, err)
			}

			if err := a.policy.Evaluate(c.Path(), identity); err != nil {
				return errorHandler(c, err)
			}

			if identity != nil {
				c.SetContext(WithIdentityContext(c.Context(), identity))
			}

			return hf(c)
		}
	}
}

// identityFromRequest resolves the session token, if any, back into an
// Identity. A bad or stale token degrades to an unauthenticated request and
// the policy decides whether that matters for this path; a storage outage is
// not an authentication verdict and propagates so the transport can answer
// with the retryable status instead of a 401.
func (a *RouteAuthenticator) identityFromRequest(c router.Context) (Identity, error) {
	raw := a.tokenFromRequest(c)
	if raw == "" {
		return nil, nil
	}

	session, err := a.tokens.Validate(raw)
	if err != nil {
		a.Logger.Debug("session token rejected", "error", err)
		return nil, nil
	}

	identity, err := a.auther.IdentityFromSession(c.Context(), a.accounts, session)
	if err != nil {
		if IsStorageUnavailable(err) {
			return nil, err
		}
		a.Logger.Debug("session identity rejected", "error", err)
		return nil, nil
	}

	return identity, nil
}

// tokenFromRequest walks the configured lookup sources in order and returns
// the first token present.
func (a *RouteAuthenticator) tokenFromRequest(c router.Context) string {
	for _, src := range a.tokenSources {
		switch src.kind {
		case "cookie":
			if cookie := c.Cookies(src.name); cookie != "" {
				return cookie
			}
		case "header":
			header := c.Header(src.name)
			if header == "" {
				continue
			}

			scheme := a.cfg.GetAuthScheme()
			if scheme == "" {
				return header
			}
			if strings.HasPrefix(header, scheme+" ") {
				return strings.TrimPrefix(header, scheme+" ")
			}
		}
	}

	return ""
}

// Login verifies credentials, mints a session token, and installs it as an
// HTTP-only cookie.
func (a *RouteAuthenticator) Login(c router.Context, payload LoginPayload) error {
	identity, err := a.auther.Authenticate(c.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	token, err := a.tokens.Generate(identity)
	if err != nil {
		return err
	}

	a.setCookieToken(c, token, a.cookieDuration)
	return nil
}

func (a *RouteAuthenticator) Logout(c router.Context) {
	a.cookieDel(c, a.cfg.GetContextKey())
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	status := StatusForError(err)

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred")
	}

	a.Logger.Info(
		"request rejected",
		"path", c.Path(),
		"status", status,
		"text_code", richErr.TextCode,
	)

	return c.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// StatusForError maps the stable error kinds to protocol status codes:
// AuthenticationFailed is a 401-equivalent, AccessDenied a 403-equivalent,
// and so on. Unrecognized errors map to 500.
func StatusForError(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	switch richErr.TextCode {
	case TextCodeInvalidCreds, TextCodeSessionDecodeError:
		return fiber.StatusUnauthorized
	case TextCodeAccessDenied:
		return fiber.StatusForbidden
	case TextCodeNotFound:
		return fiber.StatusNotFound
	case TextCodeDuplicateInvitation, TextCodeRegistrationConflict:
		return fiber.StatusConflict
	case TextCodeStorageUnavailable:
		return fiber.StatusServiceUnavailable
	case TextCodeInvitationInvalid, TextCodeInvalidRole, TextCodeEmptyPassword:
		return fiber.StatusBadRequest
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

var _ Middleware = (*RouteAuthenticator)(nil)
