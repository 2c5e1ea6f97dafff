package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/reading-list/internal/apperr"
	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/logging"
	"github.com/iliyamo/reading-list/internal/utils"
)

var gate = config.AuthGateConfig{
	ProtectedPrefixes: []string{"/api/v1/entries", "/api/v1/auth/me"},
	PublicPaths:       []string{"/docs"},
}

type fakeBlacklist struct {
	jtis map[string]bool
	err  error
}

func (b fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return b.jtis[jti], b.err
}

func testCodec(t *testing.T) *utils.TokenCodec {
	t.Helper()
	codec, err := utils.NewTokenCodec(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "neuro-butler",
		Algorithm:  "HS256",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 30 * time.Minute,
	})
	require.NoError(t, err)
	return codec
}

// serve runs mw for one request and returns the error it produced and the
// identity the next handler saw.
func serve(t *testing.T, mw echo.MiddlewareFunc, method, path, auth string) (*Identity, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	var seen *Identity
	err := mw(func(c echo.Context) error {
		seen = IdentityFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	return seen, err
}

func TestJWTAuthRejections(t *testing.T) {
	codec := testCodec(t)
	access, err := codec.IssueAccess("7", "", "dev1")
	require.NoError(t, err)
	refresh, err := codec.Encode(codec.BuildRefreshClaims("7", "dev1"))
	require.NoError(t, err)
	badSub, err := codec.IssueAccess("seven", "user", "dev1")
	require.NoError(t, err)
	revoked, err := codec.IssueAccess("7", "user", "dev1")
	require.NoError(t, err)
	revokedClaims, err := codec.Decode(revoked)
	require.NoError(t, err)

	mw := JWTAuth(codec, fakeBlacklist{jtis: map[string]bool{revokedClaims.ID: true}}, gate)

	tests := []struct {
		name string
		auth string
		want error
	}{
		{"missing header", "", apperr.ErrMissingAuthorization},
		{"basic scheme", "Basic abc", apperr.ErrInvalidScheme},
		{"no scheme", access, apperr.ErrInvalidScheme},
		{"empty token", "Bearer ", apperr.ErrEmptyToken},
		{"scheme only", "Bearer", apperr.ErrInvalidScheme},
		{"blank token", "Bearer    ", apperr.ErrEmptyToken},
		{"garbage", "Bearer not.a.jwt", apperr.ErrInvalidAccessToken},
		{"refresh token", "Bearer " + refresh, apperr.ErrAccessTokenRequired},
		{"revoked", "Bearer " + revoked, apperr.ErrTokenRevoked},
		{"bad subject", "Bearer " + badSub, apperr.ErrInvalidSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := serve(t, mw, http.MethodGet, "/api/v1/entries", tt.auth)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, id)
		})
	}
}

func TestJWTAuthAttachesIdentity(t *testing.T) {
	codec := testCodec(t)
	access, err := codec.IssueAccess("7", "", "dev1")
	require.NoError(t, err)
	mw := JWTAuth(codec, fakeBlacklist{}, gate)

	for _, scheme := range []string{"Bearer ", "bearer ", "BEARER "} {
		id, err := serve(t, mw, http.MethodGet, "/api/v1/auth/me", scheme+access)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, uint64(7), id.UserID)
		assert.Equal(t, "user", id.Role, "role defaults to user")
		assert.Equal(t, access, id.Token)
		assert.Equal(t, "dev1", id.Claims.Device)
	}
}

func TestJWTAuthPassesUnprotected(t *testing.T) {
	mw := JWTAuth(testCodec(t), fakeBlacklist{}, gate)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/healthz"},
		{http.MethodPost, "/api/v1/auth/login"},
		{http.MethodGet, "/docs"},
		{http.MethodOptions, "/api/v1/entries"},
	} {
		id, err := serve(t, mw, tc.method, tc.path, "")
		assert.NoError(t, err, tc.path)
		assert.Nil(t, id)
	}
}

func TestJWTAuthBlacklistError(t *testing.T) {
	codec := testCodec(t)
	access, err := codec.IssueAccess("7", "user", "dev1")
	require.NoError(t, err)
	boom := errors.New("db down")
	mw := JWTAuth(codec, fakeBlacklist{err: boom}, gate)

	_, err = serve(t, mw, http.MethodGet, "/api/v1/entries", "Bearer "+access)
	assert.ErrorIs(t, err, boom)
	var ae *apperr.Error
	assert.False(t, errors.As(err, &ae), "store failures are not auth rejections")
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("admin")
	e := echo.New()
	run := func(id *Identity) error {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
		if id != nil {
			req = req.WithContext(WithIdentity(req.Context(), id))
		}
		c := e.NewContext(req, httptest.NewRecorder())
		return mw(func(c echo.Context) error { return nil })(c)
	}

	assert.NoError(t, run(&Identity{UserID: 1, Role: "admin"}))
	assert.ErrorIs(t, run(&Identity{UserID: 2, Role: "user"}), apperr.ErrForbidden)
	assert.ErrorIs(t, run(nil), apperr.ErrForbidden)
}

type fakeScripter struct {
	redis.Scripter
	result []any
	err    error
	keys   []string
}

func (f *fakeScripter) EvalSha(_ context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	f.keys = keys
	return redis.NewCmdResult(f.result, f.err)
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.EvalSha(ctx, script, keys, args...)
}

func rateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl:auth",
	}
}

func TestTokenBucketBlocks(t *testing.T) {
	s := &fakeScripter{result: []any{int64(0), int64(0), int64(1500)}}
	mw := newTokenBucket(rateConfig(), s, time.Now)

	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/auth/login")

	called := false
	err := mw(func(echo.Context) error { called = true; return nil })(c)
	assert.ErrorIs(t, err, apperr.ErrRateLimited)
	assert.False(t, called)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, []string{"rl:auth:ip:10.0.0.1:route:POST /api/v1/auth/login"}, s.keys)
}

func TestTokenBucketAllowsAndFailsOpen(t *testing.T) {
	for name, s := range map[string]*fakeScripter{
		"allowed":     {result: []any{int64(1), int64(4), int64(0)}},
		"redis error": {err: errors.New("connection refused")},
		"bad result":  {result: []any{"x"}},
	} {
		t.Run(name, func(t *testing.T) {
			mw := newTokenBucket(rateConfig(), s, time.Now)
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil), httptest.NewRecorder())
			called := false
			err := mw(func(echo.Context) error { called = true; return nil })(c)
			assert.NoError(t, err)
			assert.True(t, called)
		})
	}
}

func TestTokenBucketPassthroughWithoutRedis(t *testing.T) {
	for _, cfg := range []config.RateLimitConfig{rateConfig(), {Enabled: false}} {
		mw := NewTokenBucket(cfg, nil)
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		called := false
		assert.NoError(t, mw(func(echo.Context) error { called = true; return nil })(c))
		assert.True(t, called)
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.RemoteAddr = "10.0.0.2:999"
	req = req.WithContext(WithIdentity(req.Context(), &Identity{UserID: 9}))
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/auth/refresh")

	cfg := rateConfig()
	for strategy, want := range map[string]string{
		"ip":         "rl:auth:ip:10.0.0.2",
		"user":       "rl:auth:user:9",
		"route":      "rl:auth:route:POST /api/v1/auth/refresh",
		"ip_user":    "rl:auth:ip:10.0.0.2:user:9",
		"user_route": "rl:auth:user:9:route:POST /api/v1/auth/refresh",
		"":           "rl:auth:ip:10.0.0.2:user:9:route:POST /api/v1/auth/refresh",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(3), asInt64(int64(3)))
	assert.Equal(t, int64(3), asInt64(3.9))
	assert.Equal(t, int64(12), asInt64("12"))
	assert.Equal(t, int64(0), asInt64(nil))
}

func TestRequestLoggerCarriesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(&buf, "info", "json")

	e := echo.New()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{TargetHeader: CorrelationHeader}))
	e.Use(RequestLogger(log))
	var cid string
	e.GET("/ping", func(c echo.Context) error {
		cid = logging.CorrelationID(c.Request().Context())
		logging.FromContext(c.Request().Context()).Info("inside")
		return c.String(http.StatusTeapot, "short and stout")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(CorrelationHeader, "abc123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "abc123", rec.Header().Get(CorrelationHeader))
	assert.Equal(t, "abc123", cid)
	assert.Contains(t, buf.String(), `"correlation_id":"abc123"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"msg":"inside"`)
}

func TestRequestLoggerRendersErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(&buf, "info", "json")
	log.SetLevel(logrus.InfoLevel)

	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, buf.String(), `"status":502`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}
