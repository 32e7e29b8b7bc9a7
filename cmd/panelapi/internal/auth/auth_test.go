package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Infinity2209/user/pkg/access"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var admin = access.Identity{ID: "1", Name: "Admin User", Email: "admin@company.com", Role: access.RoleAdmin}

func init() {
	PasswordCost = bcrypt.MinCost
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.NoError(t, VerifyPassword(hash, "admin123"))
	assert.Error(t, VerifyPassword(hash, "wrong"))
	assert.Error(t, VerifyPassword("not-a-hash", "admin123"))
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := NewTokenIssuer("short", time.Hour, nil)
	assert.Error(t, err)

	_, err = NewTokenIssuer(testSecret, 0, nil)
	assert.Error(t, err)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour, nil)
	require.NoError(t, err)

	tok, err := issuer.Issue(admin)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.TokenID)
	assert.Equal(t, 3, len(strings.Split(tok.Token, ".")))

	claims, err := issuer.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, admin, claims.Identity())
	assert.Equal(t, tok.TokenID, claims.ID)
	assert.True(t, tok.ExpiresAt.Equal(claims.ExpiresAt.Time))
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour, nil)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenIssuer("fedcba9876543210fedcba9876543210", time.Hour, nil)
		require.NoError(t, err)
		tok, err := other.Issue(admin)
		require.NoError(t, err)

		_, err = issuer.Verify(tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past, err := NewTokenIssuer(testSecret, time.Minute, nil)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, err := past.Issue(admin)
		require.NoError(t, err)

		_, err = issuer.Verify(tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing jti", func(t *testing.T) {
		claims := &Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = issuer.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenIssuer_Revoke(t *testing.T) {
	list := NewRevocationList(time.Minute)
	issuer, err := NewTokenIssuer(testSecret, time.Hour, list)
	require.NoError(t, err)

	tok, err := issuer.Issue(admin)
	require.NoError(t, err)
	claims, err := issuer.Verify(tok.Token)
	require.NoError(t, err)

	issuer.Revoke(claims)
	assert.Equal(t, 1, list.Len())

	_, err = issuer.Verify(tok.Token)
	assert.True(t, errors.Is(err, ErrTokenRevoked))

	// A fresh login is unaffected.
	again, err := issuer.Issue(admin)
	require.NoError(t, err)
	_, err = issuer.Verify(again.Token)
	assert.NoError(t, err)
}

func TestRevocationList(t *testing.T) {
	list := NewRevocationList(time.Minute)

	list.Revoke("", time.Now().Add(time.Hour))
	assert.Zero(t, list.Len())

	list.Revoke("expired", time.Now().Add(-time.Second))
	assert.False(t, list.IsRevoked("expired"))

	list.Revoke("live", time.Now().Add(time.Hour))
	assert.True(t, list.IsRevoked("live"))

	list.Revoke("forever", time.Time{})
	assert.True(t, list.IsRevoked("forever"))

	assert.False(t, list.IsRevoked("other"))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := GetPrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := SetPrincipalContext(context.Background(), Principal{Identity: admin, TokenID: "j"})
	got, ok := GetPrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, admin, got.Identity)
	assert.Equal(t, "j", got.TokenID)
}
