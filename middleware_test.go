package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/innkeep/go-auth"
)

type middlewareFixture struct {
	app     *fiber.App
	manager *auth.SessionManager
	cfg     *testConfig
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()

	hasher := testHasher(t)
	cfg := newTestConfig()
	clock := newFixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	accounts := newMemCredentialStore(
		makeAccount(t, hasher, 1, "viewer", "viewer@hotel.test", "lobby-1", auth.RoleViewer, true),
		makeAccount(t, hasher, 2, "admin", "admin@hotel.test", "office-2", auth.RoleAdmin, true),
	)

	store := newMemSessionStore()
	manager := auth.NewSessionManager(store, accounts, cfg).WithClock(clock.Now)
	guard := auth.NewGuard(manager)
	middleware := auth.NewGuardMiddleware(guard, cfg)

	app := fiber.New()

	app.Get("/dashboard", middleware.Protected(auth.RoleViewer), func(c *fiber.Ctx) error {
		grant, ok := c.Locals(auth.LocalsGrantKey).(auth.Grant)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{
			"account_id": grant.AccountID,
			"role":       grant.Role,
		})
	})

	app.Get("/admin", middleware.Protected(auth.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("admin area")
	})

	app.Post("/rooms", middleware.Protected(auth.RoleEditor), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	return &middlewareFixture{app: app, manager: manager, cfg: cfg}
}

func (f *middlewareFixture) login(t *testing.T, accountID int64) *auth.Session {
	t.Helper()

	session, err := f.manager.Create(context.Background(), accountID, false)
	require.NoError(t, err)
	return session
}

func TestProtectedRequiresSession(t *testing.T) {
	fx := newMiddlewareFixture(t)

	resp, err := fx.app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	// the original destination is remembered for after login
	marker := findCookie(resp, fx.cfg.GetRejectedRouteKey())
	require.NotNil(t, marker)
	assert.Equal(t, "/dashboard", marker.Value)
}

func TestProtectedNonGETRedirectsSeeOther(t *testing.T) {
	fx := newMiddlewareFixture(t)

	resp, err := fx.app.Test(httptest.NewRequest(http.MethodPost, "/rooms", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))
}

func TestProtectedAdmitsValidSession(t *testing.T) {
	fx := newMiddlewareFixture(t)
	session := fx.login(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: fx.cfg.GetCookieName(), Value: session.Token})

	resp, err := fx.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"account_id":1`)
}

func TestProtectedAcceptsBearerToken(t *testing.T) {
	fx := newMiddlewareFixture(t)
	session := fx.login(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+session.Token)

	resp, err := fx.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedEnforcesRole(t *testing.T) {
	fx := newMiddlewareFixture(t)

	viewerSession := fx.login(t, 1)
	adminSession := fx.login(t, 2)

	t.Run("viewer is forbidden from admin routes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: fx.cfg.GetCookieName(), Value: viewerSession.Token})

		resp, err := fx.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: fx.cfg.GetCookieName(), Value: adminSession.Token})

		resp, err := fx.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestProtectedRejectsRevokedSession(t *testing.T) {
	fx := newMiddlewareFixture(t)
	session := fx.login(t, 1)

	require.NoError(t, fx.manager.Revoke(context.Background(), session.Token))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: fx.cfg.GetCookieName(), Value: session.Token})

	resp, err := fx.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
