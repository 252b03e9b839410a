package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	auth "github.com/innkeep/go-auth"
)

func TestNewEnvConfigDefaults(t *testing.T) {
	cfg := auth.NewEnvConfig()

	assert.Equal(t, auth.DefaultBcryptCost, cfg.GetBcryptCost())
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.GetExtendedSessionTTL())
	assert.Equal(t, "cms_session", cfg.GetCookieName())
	assert.True(t, cfg.GetCookieSecure())
	assert.True(t, cfg.GetCookieHTTPOnly())
	assert.Equal(t, "Lax", cfg.GetCookieSameSite())
	assert.Equal(t, "/login", cfg.GetLoginRoute())
	assert.Equal(t, "/admin", cfg.GetAdminLanding())
	assert.Equal(t, "/dashboard", cfg.GetDefaultLanding())
	assert.Equal(t, "cms_redirect", cfg.GetRejectedRouteKey())
}

func TestNewEnvConfigOverrides(t *testing.T) {
	t.Setenv("AUTH_BCRYPT_COST", "10")
	t.Setenv("AUTH_SESSION_TTL", "8h")
	t.Setenv("AUTH_EXTENDED_SESSION_TTL", "168h")
	t.Setenv("AUTH_COOKIE_NAME", "hotel_session")
	t.Setenv("AUTH_COOKIE_SECURE", "false")
	t.Setenv("AUTH_COOKIE_SAME_SITE", "Strict")
	t.Setenv("AUTH_ADMIN_LANDING", "/back-office")

	cfg := auth.NewEnvConfig()

	assert.Equal(t, 10, cfg.GetBcryptCost())
	assert.Equal(t, 8*time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.GetExtendedSessionTTL())
	assert.Equal(t, "hotel_session", cfg.GetCookieName())
	assert.False(t, cfg.GetCookieSecure())
	assert.Equal(t, "Strict", cfg.GetCookieSameSite())
	assert.Equal(t, "/back-office", cfg.GetAdminLanding())
}

func TestNewEnvConfigBadValuesFallBack(t *testing.T) {
	t.Setenv("AUTH_BCRYPT_COST", "lots")
	t.Setenv("AUTH_SESSION_TTL", "-4h")
	t.Setenv("AUTH_COOKIE_SECURE", "sure")

	cfg := auth.NewEnvConfig()

	assert.Equal(t, auth.DefaultBcryptCost, cfg.GetBcryptCost())
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTTL())
	assert.True(t, cfg.GetCookieSecure())
}
