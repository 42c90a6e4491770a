package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/config"
	apperrors "taskmanager/internal/errors"
)

func TestSessionIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", time.Hour)

	token, issued, err := issuer.Issue(42, "bob@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt.Time, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "bob@x.com", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestSessionIssuer_DefaultTTL(t *testing.T) {
	assert.Equal(t, time.Hour, NewSessionIssuer("s", 0).TTL())
}

func TestSessionIssuer_VerifyFailures(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", time.Hour)
	valid, _, err := issuer.Issue(1, "a@b.co")
	require.NoError(t, err)

	expired, _, err := NewSessionIssuer("test-secret", -time.Minute).Issue(1, "a@b.co")
	require.NoError(t, err)

	foreign, _, err := NewSessionIssuer("other-secret", time.Hour).Issue(1, "a@b.co")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", apperrors.ErrNoToken},
		{"garbage", "not-a-jwt", apperrors.ErrInvalidToken},
		{"expired", expired, apperrors.ErrInvalidToken},
		{"wrong secret", foreign, apperrors.ErrInvalidToken},
		{"alg none", unsigned, apperrors.ErrInvalidToken},
		{"tampered payload", tampered, apperrors.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := issuer.Verify(tt.token)
			assert.Nil(t, claims)
			assert.Equal(t, tt.want, err)
			assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, hasher.Check("secret123", hash))
	assert.False(t, hasher.Check("secret124", hash))

	other, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")
}

func TestTokenStore_NoCache(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	assert.NoError(t, store.Revoke(ctx, "jti", time.Now().Add(time.Hour)))
	assert.False(t, store.IsRevoked(ctx, "jti"))
	assert.NoError(t, store.Revoke(ctx, "jti", time.Now().Add(-time.Hour)))
	assert.False(t, store.IsRevoked(ctx, ""))
}

func TestCookies(t *testing.T) {
	cookies := NewCookies(config.SessionConfig{CookieName: "token", TTL: time.Hour, SecureCookie: true})

	session := cookies.Session("abc")
	assert.Equal(t, "token", session.Name)
	assert.Equal(t, "abc", session.Value)
	assert.Equal(t, 3600, session.MaxAge)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Secure)
	assert.Equal(t, http.SameSiteStrictMode, session.SameSite)

	cleared := cookies.Cleared()
	assert.Equal(t, "token", cleared.Name)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
	assert.True(t, cleared.HttpOnly)
}
