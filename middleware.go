package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Locals keys populated by the guard middleware for downstream handlers.
const (
	LocalsGrantKey     = "auth_grant"
	LocalsAccountIDKey = "auth_account_id"
	LocalsRoleKey      = "auth_role"
)

// GuardMiddleware protects fiber routes behind a role requirement.
// Browser traffic without a session gets bounced to the login form with
// a marker cookie so it can return after signing in; API style requests
// get JSON errors instead.
type GuardMiddleware struct {
	guard        *Guard
	cfg          Config
	logger       Logger
	DenyHandler  func(c *fiber.Ctx, decision Decision) error
	ErrorHandler func(c *fiber.Ctx, err error) error
}

func NewGuardMiddleware(guard *Guard, cfg Config) *GuardMiddleware {
	m := &GuardMiddleware{
		guard:  guard,
		cfg:    cfg,
		logger: defLogger{},
	}

	m.DenyHandler = m.defaultDenyHandler
	m.ErrorHandler = m.defaultErrorHandler

	return m
}

// WithLogger overrides the logger used by the middleware.
func (m *GuardMiddleware) WithLogger(logger Logger) *GuardMiddleware {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Protected returns a handler that admits only sessions holding at
// least the given role.
func (m *GuardMiddleware) Protected(minimum Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := m.TokenFromRequest(c)

		decision, err := m.guard.Require(c.Context(), token, minimum)
		if err != nil {
			return m.ErrorHandler(c, err)
		}

		if !decision.Allowed {
			return m.DenyHandler(c, decision)
		}

		grant := Grant{AccountID: decision.AccountID, Role: decision.Role}

		c.Locals(LocalsGrantKey, grant)
		c.Locals(LocalsAccountIDKey, decision.AccountID)
		c.Locals(LocalsRoleKey, decision.Role)

		c.SetUserContext(WithGrantContext(c.UserContext(), grant))

		return c.Next()
	}
}

// TokenFromRequest extracts the session token, preferring the cookie
// and falling back to a bearer Authorization header.
func (m *GuardMiddleware) TokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(m.cfg.GetCookieName()); token != "" {
		return token
	}

	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}

func (m *GuardMiddleware) defaultDenyHandler(c *fiber.Ctx, decision Decision) error {
	if decision.Reason == DenyInsufficientRole {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}

	m.setRedirectCookie(c)

	status := fiber.StatusSeeOther
	if c.Method() == fiber.MethodGet {
		status = fiber.StatusFound
	}

	return c.Redirect(m.cfg.GetLoginRoute(), status)
}

func (m *GuardMiddleware) defaultErrorHandler(c *fiber.Ctx, err error) error {
	m.logger.Error("session guard: %v", err)

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "service temporarily unavailable",
	})
}

// setRedirectCookie remembers where the visitor was headed so the
// login flow can send them back afterwards.
func (m *GuardMiddleware) setRedirectCookie(c *fiber.Ctx) {
	key := m.cfg.GetRejectedRouteKey()

	m.logger.Info("setting redirect cookie %s=%s", key, c.OriginalURL())

	c.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    c.OriginalURL(),
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: m.cfg.GetCookieSameSite(),
	})
}
