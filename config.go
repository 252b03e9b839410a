package auth

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvConfig implements Config from environment variables, optionally
// seeded from .env files. Nothing security relevant is hardcoded: hashing
// cost, session TTLs, and cookie flags are all overridable per deployment.
type EnvConfig struct {
	BcryptCost         int
	SessionTTL         time.Duration
	ExtendedSessionTTL time.Duration
	CookieName         string
	CookieSecure       bool
	CookieHTTPOnly     bool
	CookieSameSite     string
	LoginRoute         string
	AdminLanding       string
	DefaultLanding     string
	RejectedRouteKey   string
}

var _ Config = (*EnvConfig)(nil)

// NewEnvConfig loads configuration from the environment. Any .env files
// given are loaded first; a missing file is not an error so deployments
// can run on real environment variables alone.
func NewEnvConfig(files ...string) *EnvConfig {
	for _, file := range files {
		_ = godotenv.Load(file)
	}

	return &EnvConfig{
		BcryptCost:         envInt("AUTH_BCRYPT_COST", DefaultBcryptCost),
		SessionTTL:         envDuration("AUTH_SESSION_TTL", 24*time.Hour),
		ExtendedSessionTTL: envDuration("AUTH_EXTENDED_SESSION_TTL", 30*24*time.Hour),
		CookieName:         envString("AUTH_COOKIE_NAME", "cms_session"),
		CookieSecure:       envBool("AUTH_COOKIE_SECURE", true),
		CookieHTTPOnly:     envBool("AUTH_COOKIE_HTTP_ONLY", true),
		CookieSameSite:     envString("AUTH_COOKIE_SAME_SITE", "Lax"),
		LoginRoute:         envString("AUTH_LOGIN_ROUTE", "/login"),
		AdminLanding:       envString("AUTH_ADMIN_LANDING", "/admin"),
		DefaultLanding:     envString("AUTH_DEFAULT_LANDING", "/dashboard"),
		RejectedRouteKey:   envString("AUTH_REJECTED_ROUTE_KEY", "cms_redirect"),
	}
}

func (c *EnvConfig) GetBcryptCost() int                  { return c.BcryptCost }
func (c *EnvConfig) GetSessionTTL() time.Duration        { return c.SessionTTL }
func (c *EnvConfig) GetExtendedSessionTTL() time.Duration { return c.ExtendedSessionTTL }
func (c *EnvConfig) GetCookieName() string               { return c.CookieName }
func (c *EnvConfig) GetCookieSecure() bool               { return c.CookieSecure }
func (c *EnvConfig) GetCookieHTTPOnly() bool             { return c.CookieHTTPOnly }
func (c *EnvConfig) GetCookieSameSite() string           { return c.CookieSameSite }
func (c *EnvConfig) GetLoginRoute() string               { return c.LoginRoute }
func (c *EnvConfig) GetAdminLanding() string             { return c.AdminLanding }
func (c *EnvConfig) GetDefaultLanding() string           { return c.DefaultLanding }
func (c *EnvConfig) GetRejectedRouteKey() string         { return c.RejectedRouteKey }

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
