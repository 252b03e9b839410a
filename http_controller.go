package auth

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Get(controller.Routes.Login, controller.LoginShow).Name("sign-in.get")
	app.Post(controller.Routes.Login, controller.LoginPost).Name("sign-in.post")
	app.Get(controller.Routes.Logout, controller.LogOut).Name("sign-out.get")

	return controller
}

type AuthControllerRoutes struct {
	Login  string
	Logout string
}

type AuthControllerViews struct {
	Login string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Flow     *LoginFlow
	Sessions *SessionManager
	Config   Config
	Routes   *AuthControllerRoutes
	Views    *AuthControllerViews
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerFlow(flow *LoginFlow) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Flow = flow
		return c
	}
}

func WithControllerSessions(sessions *SessionManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:  "/login",
			Logout: "/logout",
		},
		Views: &AuthControllerViews{
			Login: "login",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Flow == nil {
		panic("Missing LoginFlow in auth controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

// LoginShow renders the login form. A request that already carries a
// valid session skips the form and goes straight to its landing page.
func (a *AuthController) LoginShow(c *fiber.Ctx) error {
	if token := c.Cookies(a.Config.GetCookieName()); token != "" {
		if grant, ok, err := a.Sessions.Validate(c.Context(), token); err == nil && ok {
			return c.Redirect(a.landingFor(grant.Role), fiber.StatusSeeOther)
		}
	}

	return c.Render(a.Views.Login, fiber.Map{
		"error_message": nil,
		"record":        nil,
	})
}

// LoginPayload is the login form payload
type LoginPayload struct {
	Identifier string `form:"identifier" json:"identifier"`
	Secret     string `form:"secret" json:"secret"`
	Remember   string `form:"remember" json:"remember"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Secret, validation.Required),
	)
}

// RememberMe reports whether the checkbox was ticked. Browsers send
// "on" for a bare checkbox, other clients may send "true" or "1".
func (r LoginPayload) RememberMe() bool {
	switch r.Remember {
	case "on", "true", "1":
		return true
	}
	return false
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).Render(a.Views.Login, fiber.Map{
			"error_message": "Please fill in both username and password",
			"record":        payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Render(a.Views.Login, fiber.Map{
			"error_message": "Please fill in both username and password",
			"record":        payload,
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Flow.Login(c.Context(), LoginRequest{
		Identifier: payload.Identifier,
		Secret:     payload.Secret,
		Remember:   payload.RememberMe(),
	})
	if err != nil {
		a.Logger.Error("login flow: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).Render(a.Views.Login, fiber.Map{
			"error_message": "Service temporarily unavailable, please try again",
			"record":        payload,
		})
	}

	switch result.Result.Status {
	case AuthSuccess:
	case AuthAccountInactive:
		return c.Render(a.Views.Login, fiber.Map{
			"error_message": "This account has been disabled",
			"record":        payload,
		})
	case AuthMalformedRequest:
		return c.Render(a.Views.Login, fiber.Map{
			"error_message": "Please fill in both username and password",
			"record":        payload,
		})
	default:
		// Throttled responses share the generic message so attempt
		// counting leaks nothing beyond the slowdown itself.
		return c.Render(a.Views.Login, fiber.Map{
			"error_message": "Invalid username or password",
			"record":        payload,
		})
	}

	a.setSessionCookie(c, result.Session)

	redirect := a.GetRedirect(c, a.landingFor(result.Result.Role))

	return c.Redirect(redirect, fiber.StatusSeeOther)
}

func (a *AuthController) LogOut(c *fiber.Ctx) error {
	token := c.Cookies(a.Config.GetCookieName())

	if err := a.Flow.Logout(c.Context(), token); err != nil {
		a.Logger.Warn("logout: %v", err)
	}

	a.clearSessionCookie(c)

	return c.Redirect(a.Config.GetLoginRoute(), fiber.StatusSeeOther)
}

// landingFor picks the post login destination by role. Admins land on
// the management screen, everyone else on the regular dashboard.
func (a *AuthController) landingFor(role Role) string {
	if role.AtLeast(RoleAdmin) {
		return a.Config.GetAdminLanding()
	}
	return a.Config.GetDefaultLanding()
}

// GetRedirect returns the route the visitor was bounced from, falling
// back to def. The marker cookie is consumed either way.
func (a *AuthController) GetRedirect(c *fiber.Ctx, def string) string {
	key := a.Config.GetRejectedRouteKey()

	if r := c.Cookies(key); r != "" {
		a.deleteCookie(c, key)
		return r
	}

	return def
}

func (a *AuthController) setSessionCookie(c *fiber.Ctx, session *Session) {
	if session == nil {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     a.Config.GetCookieName(),
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		Secure:   a.Config.GetCookieSecure(),
		HTTPOnly: a.Config.GetCookieHTTPOnly(),
		SameSite: a.Config.GetCookieSameSite(),
	})
}

func (a *AuthController) clearSessionCookie(c *fiber.Ctx) {
	name := a.Config.GetCookieName()

	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   a.Config.GetCookieSecure(),
		HTTPOnly: a.Config.GetCookieHTTPOnly(),
		SameSite: a.Config.GetCookieSameSite(),
	})
}

func (a *AuthController) deleteCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: a.Config.GetCookieSameSite(),
	})
}
