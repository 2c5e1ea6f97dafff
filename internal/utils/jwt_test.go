package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/model"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func testCodec(t *testing.T) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "neuro-butler",
		Algorithm:  "HS256",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 30 * time.Minute,
	})
	require.NoError(t, err)
	return c.WithClock(func() time.Time { return t0 })
}

func at(c *TokenCodec, ts time.Time) *TokenCodec {
	return c.WithClock(func() time.Time { return ts })
}

func TestNewTokenCodecRejectsNonHMAC(t *testing.T) {
	for _, alg := range []string{"RS256", "none", "ES256", ""} {
		_, err := NewTokenCodec(config.JWTConfig{Secret: "s", Algorithm: alg})
		assert.Error(t, err, alg)
	}
}

func TestIssueAccessClaims(t *testing.T) {
	c := testCodec(t)

	tok, err := c.IssueAccess("7", model.RoleAdmin, "dev1")
	require.NoError(t, err)

	claims, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, model.TokenTypeAccess, claims.Type)
	assert.Equal(t, "dev1", claims.Device)
	assert.Equal(t, "neuro-butler", claims.Issuer)
	assert.Len(t, claims.ID, 32)
	assert.Equal(t, t0.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, t0.Add(5*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestRefreshRoundTrip(t *testing.T) {
	c := testCodec(t)

	built := c.BuildRefreshClaims("7", "dev1")
	assert.Empty(t, built.Role)

	tok, err := c.Encode(built)
	require.NoError(t, err)
	got, err := c.Decode(tok)
	require.NoError(t, err)

	assert.Equal(t, built.Subject, got.Subject)
	assert.Equal(t, built.Type, got.Type)
	assert.Equal(t, built.Device, got.Device)
	assert.Equal(t, built.ID, got.ID)
	assert.Equal(t, built.Issuer, got.Issuer)
	assert.Equal(t, built.IssuedAt.Unix(), got.IssuedAt.Unix())
	assert.Equal(t, built.ExpiresAt.Unix(), got.ExpiresAt.Unix())
	assert.Equal(t, t0.Add(30*time.Minute).Unix(), got.ExpiresAt.Unix())
}

func TestJTIsAreUnique(t *testing.T) {
	c := testCodec(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := c.BuildRefreshClaims("1", "d").ID
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestDecodeRejectsExpired(t *testing.T) {
	c := testCodec(t)
	tok, err := c.IssueAccess("7", model.RoleUser, "d")
	require.NoError(t, err)

	_, err = at(c, t0.Add(4*time.Minute)).Decode(tok)
	require.NoError(t, err)

	_, err = at(c, t0.Add(6*time.Minute)).Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsForeignTokens(t *testing.T) {
	c := testCodec(t)
	tok, err := c.IssueAccess("7", model.RoleUser, "d")
	require.NoError(t, err)

	otherSecret, err := NewTokenCodec(config.JWTConfig{Secret: "other", Issuer: "neuro-butler", Algorithm: "HS256", AccessTTL: time.Minute, RefreshTTL: time.Minute})
	require.NoError(t, err)
	_, err = otherSecret.WithClock(func() time.Time { return t0 }).Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer, err := NewTokenCodec(config.JWTConfig{Secret: "test-secret", Issuer: "someone-else", Algorithm: "HS256", AccessTTL: time.Minute, RefreshTTL: time.Minute})
	require.NoError(t, err)
	_, err = otherIssuer.WithClock(func() time.Time { return t0 }).Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.Decode("notajwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestDecodeRequiresClaims(t *testing.T) {
	c := testCodec(t)
	full := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":    "7",
			"type":   "access",
			"device": "d",
			"jti":    "abc",
			"iss":    "neuro-butler",
			"iat":    t0.Unix(),
			"exp":    t0.Add(time.Minute).Unix(),
		}
	}
	ok := sign(t, jwt.SigningMethodHS256, []byte("test-secret"), full())
	_, err := c.Decode(ok)
	require.NoError(t, err)

	for _, missing := range []string{"sub", "type", "jti", "iss", "iat", "exp"} {
		t.Run("missing "+missing, func(t *testing.T) {
			claims := full()
			delete(claims, missing)
			_, err := c.Decode(sign(t, jwt.SigningMethodHS256, []byte("test-secret"), claims))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("algorithm mismatch", func(t *testing.T) {
		_, err := c.Decode(sign(t, jwt.SigningMethodHS512, []byte("test-secret"), full()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		_, err := c.Decode(sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, full()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("issued in the future", func(t *testing.T) {
		claims := full()
		claims["iat"] = t0.Add(time.Hour).Unix()
		claims["exp"] = t0.Add(2 * time.Hour).Unix()
		_, err := c.Decode(sign(t, jwt.SigningMethodHS256, []byte("test-secret"), claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestDecodeDoesNotCheckType(t *testing.T) {
	c := testCodec(t)
	tok, err := c.Encode(c.BuildRefreshClaims("7", "d"))
	require.NoError(t, err)
	claims, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, model.TokenTypeRefresh, claims.Type)
}
