package middleware

import (
	"context"
	stderrors "errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"taskmanager/internal/auth"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
)

const sessionContextKey = "session"

// SessionGate resolves the session token of protected requests.
type SessionGate struct {
	issuer      *auth.SessionIssuer
	revocations auth.RevocationStore
	cookieName  string
}

// NewSessionGate creates a gate reading the token from cookieName.
func NewSessionGate(issuer *auth.SessionIssuer, revocations auth.RevocationStore, cookieName string) *SessionGate {
	return &SessionGate{issuer: issuer, revocations: revocations, cookieName: cookieName}
}

// Authenticate verifies token and rejects revoked sessions.
func (g *SessionGate) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := g.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	if g.revocations.IsRevoked(ctx, claims.ID) {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid session and stores the claims
// in the echo context for ClaimsFrom and IdentityFrom.
func (g *SessionGate) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + g.cookieName,
		ContextKey:  sessionContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return g.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if stderrors.As(err, &extractErr) {
				return apperrors.ErrNoToken
			}
			var domainErr *apperrors.Error
			if stderrors.As(err, &domainErr) {
				return domainErr
			}
			return apperrors.ErrInvalidToken
		},
	})
}

// ClaimsFrom returns the verified session claims of the request.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(sessionContextKey).(*auth.Claims)
	return claims, ok
}

// IdentityFrom returns the caller's identity. It is zero outside the session gate.
func IdentityFrom(c echo.Context) model.Identity {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return model.Identity{}
	}
	return model.Identity{ID: claims.UserID, Email: claims.Email}
}
