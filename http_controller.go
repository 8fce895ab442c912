package provision

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterProvisioningRoutes mounts the JSON surface: login/logout,
// invitation-gated registration, and the administrative endpoints. The
// admin group relies on the ProtectedRoute middleware evaluating the
// "/admin/**" policy rule; registration and login sit on open rules.
func RegisterProvisioningRoutes[T any](app router.Router[T], controller *ProvisioningController) {
	app.Post("/login", controller.LoginPost).SetName("sign-in.post")
	app.Get("/logout", controller.LogOut).SetName("sign-out.get")

	app.Get("/register/:token", controller.RegistrationProbe).SetName("register.probe")
	app.Post("/register", controller.RegistrationCreate).SetName("register.post")

	app.Get("/admin/roles", controller.RolesList).SetName("admin.roles.list")

	app.Get("/admin/invitations", controller.InvitationsList).SetName("admin.invitations.list")
	app.Post("/admin/invitations", controller.InvitationsCreate).SetName("admin.invitations.create")
	app.Delete("/admin/invitations/:token", controller.InvitationsRevoke).SetName("admin.invitations.revoke")

	app.Get("/admin/users", controller.UsersList).SetName("admin.users.list")
	app.Get("/admin/users/:id", controller.UsersGet).SetName("admin.users.get")
	app.Delete("/admin/users/:id", controller.UsersDelete).SetName("admin.users.delete")
	app.Put("/admin/users/:id/role", controller.UsersChangeRole).SetName("admin.users.role")
	app.Put("/admin/users/:id/enabled", controller.UsersSetEnabled).SetName("admin.users.enabled")
}

type ProvisioningController struct {
	Debug        bool
	Logger       Logger
	Provisioner  *Provisioner
	Auther       *RouteAuthenticator
	ErrorHandler router.ErrorHandler
}

type ProvisioningControllerOption func(*ProvisioningController) *ProvisioningController

func NewProvisioningController(opts ...ProvisioningControllerOption) *ProvisioningController {
	c := &ProvisioningController{
		Logger: defLogger{},
	}

	c.ErrorHandler = c.renderError

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Provisioner == nil {
		panic("Missing Provisioner in provisioning controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in provisioning controller...")
	}

	return c
}

func WithControllerProvisioner(p *Provisioner) ProvisioningControllerOption {
	return func(c *ProvisioningController) *ProvisioningController {
		c.Provisioner = p
		return c
	}
}

func WithControllerAuther(a *RouteAuthenticator) ProvisioningControllerOption {
	return func(c *ProvisioningController) *ProvisioningController {
		c.Auther = a
		return c
	}
}

func WithControllerLogger(l Logger) ProvisioningControllerOption {
	return func(c *ProvisioningController) *ProvisioningController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *ProvisioningController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= PROVISION LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==============================")
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"authenticated": true,
	})
}

func (a *ProvisioningController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.NoContent(fiber.StatusNoContent)
}

// RegistrationProbe is the read-only token check the front end uses before
// showing a registration form. It never consumes the invitation.
func (a *ProvisioningController) RegistrationProbe(ctx router.Context) error {
	token, err := uuid.Parse(ctx.Param("token", ""))
	if err != nil {
		return ctx.JSON(fiber.StatusOK, map[string]any{"valid": false})
	}

	valid, err := a.Provisioner.IsInvitationValid(ctx.Context(), token)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{"valid": valid})
}

// RegistrationCreatePayload is the registration form payload
type RegistrationCreatePayload struct {
	Token           string `form:"token" json:"token"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, is.UUIDv4),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *ProvisioningController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	account, err := a.Provisioner.Register(ctx.Context(), RegisterAccountMessage{
		Token:    payload.Token,
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		a.Logger.Error("register account error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, account)
}

func (a *ProvisioningController) RolesList(ctx router.Context) error {
	return ctx.JSON(fiber.StatusOK, a.Provisioner.ListAvailableRoles())
}

// InvitationCreatePayload is the invite-by-email payload
type InvitationCreatePayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r InvitationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *ProvisioningController) InvitationsList(ctx router.Context) error {
	invitations, err := a.Provisioner.ListInvitations(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, invitations)
}

func (a *ProvisioningController) InvitationsCreate(ctx router.Context) error {
	payload := new(InvitationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	invitation, err := a.Provisioner.CreateInvitation(ctx.Context(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, invitation)
}

func (a *ProvisioningController) InvitationsRevoke(ctx router.Context) error {
	token, err := uuid.Parse(ctx.Param("token", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrNotFound)
	}

	if err := a.Provisioner.RevokeInvitation(ctx.Context(), token); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(fiber.StatusNoContent)
}

func (a *ProvisioningController) UsersList(ctx router.Context) error {
	users, err := a.Provisioner.ListUsers(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, users)
}

func (a *ProvisioningController) UsersGet(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrNotFound)
	}

	user, err := a.Provisioner.GetUser(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, user)
}

func (a *ProvisioningController) UsersDelete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrNotFound)
	}

	if err := a.Provisioner.DeleteUser(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(fiber.StatusNoContent)
}

// ChangeRolePayload names the new role for an account
type ChangeRolePayload struct {
	Role string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r ChangeRolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required),
	)
}

func (a *ProvisioningController) UsersChangeRole(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrNotFound)
	}

	payload := new(ChangeRolePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Provisioner.ChangeRole(ctx.Context(), id, payload.Role)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, user)
}

// SetEnabledPayload toggles the authentication gate
type SetEnabledPayload struct {
	Enabled bool `form:"enabled" json:"enabled"`
}

func (a *ProvisioningController) UsersSetEnabled(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrNotFound)
	}

	payload := new(SetEnabledPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Provisioner.SetEnabled(ctx.Context(), id, payload.Enabled)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, user)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

func (a *ProvisioningController) renderError(c router.Context, err error) error {
	status := StatusForError(err)
	if _, ok := err.(validation.Errors); ok {
		status = fiber.StatusBadRequest
	}

	return c.JSON(status, map[string]any{
		"error": err.Error(),
	})
}
