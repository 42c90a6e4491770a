package auth

import (
	"net/http"
	"time"

	"taskmanager/internal/config"
)

// Cookies builds the HTTP-only cookie that carries the session token.
type Cookies struct {
	name   string
	secure bool
	maxAge time.Duration
}

// NewCookies creates a cookie factory from session configuration.
func NewCookies(cfg config.SessionConfig) *Cookies {
	name := cfg.CookieName
	if name == "" {
		name = "token"
	}
	maxAge := cfg.TTL
	if maxAge <= 0 {
		maxAge = DefaultSessionTTL
	}
	return &Cookies{name: name, secure: cfg.SecureCookie, maxAge: maxAge}
}

// Name returns the cookie name.
func (c *Cookies) Name() string {
	return c.name
}

// Session returns a cookie holding token.
func (c *Cookies) Session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		Expires:  time.Now().Add(c.maxAge),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Cleared returns a cookie instructing the client to discard its session.
func (c *Cookies) Cleared() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
