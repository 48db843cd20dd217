package devserver

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	t.Run("granted_token_resolves_operator", func(t *testing.T) {
		grant, err := tokens.Grant("admin")
		require.NoError(t, err)
		assert.NotEmpty(t, grant.Token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), grant.ExpiresAt, 5*time.Second)

		op, err := tokens.Operator(grant.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", op.Username)
		assert.Equal(t, "admin", op.Subject)
		assert.Equal(t, tokenIssuer, op.Issuer)
	})

	t.Run("authorization_header_forms", func(t *testing.T) {
		grant, err := tokens.Grant("admin")
		require.NoError(t, err)

		for _, header := range []string{
			"Bearer " + grant.Token,
			"bearer " + grant.Token,
			"  Bearer   " + grant.Token + " ",
		} {
			_, err := tokens.Operator(header)
			assert.NoError(t, err, header)
		}
	})

	t.Run("grant_needs_username", func(t *testing.T) {
		_, err := tokens.Grant("")
		assert.Error(t, err)
	})

	t.Run("rejected_tokens", func(t *testing.T) {
		other, err := NewTokens("other-secret", time.Hour).Grant("admin")
		require.NoError(t, err)

		foreignIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Operator{
			Username: "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "elsewhere",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Operator{
			Username:         "admin",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		otherMethod, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Operator{
			Username: "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		for name, header := range map[string]string{
			"empty":          "",
			"bearer_only":    "Bearer ",
			"garbage":        "invalid-token",
			"other_secret":   other.Token,
			"foreign_issuer": foreignIssuer,
			"no_expiry":      noExpiry,
			"other_method":   otherMethod,
		} {
			_, err := tokens.Operator(header)
			assert.ErrorIs(t, err, ErrBadToken, name)
		}
	})

	t.Run("expired_token", func(t *testing.T) {
		stale := NewTokens("test-secret", time.Hour)
		stale.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		grant, err := stale.Grant("admin")
		require.NoError(t, err)

		_, err = tokens.Operator(grant.Token)
		assert.ErrorIs(t, err, ErrBadToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("default_ttl", func(t *testing.T) {
		assert.Equal(t, 24*time.Hour, NewTokens("s", 0).ttl)
	})
}
