package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/config"
	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
	"github.com/iliyamo/sports-booking-backend/internal/utils"
)

const secret = "test-secret"

func newCtx(method, target string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func bearerFor(t *testing.T, claims utils.Claims) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, claims, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func kindOf(t *testing.T, err error) (usecase.Kind, string) {
	t.Helper()
	var ue *usecase.Error
	require.True(t, errors.As(err, &ue), "want *usecase.Error, got %v", err)
	return ue.Kind, ue.Key
}

func TestJWTAuth(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/", nil)
	kind, key := kindOf(t, JWTAuth(secret)(ok)(c))
	assert.Equal(t, usecase.KindUnauthorized, kind)
	assert.Equal(t, "auth.missing_token", key)

	c, _ = newCtx(http.MethodGet, "/", map[string]string{echo.HeaderAuthorization: "Bearer nope"})
	_, key = kindOf(t, JWTAuth(secret)(ok)(c))
	assert.Equal(t, "auth.invalid_token", key)

	auth := bearerFor(t, utils.Claims{UserID: 7, TenantID: 3, Role: model.RoleStaff})
	c, rec := newCtx(http.MethodGet, "/", map[string]string{echo.HeaderAuthorization: auth})
	require.NoError(t, JWTAuth(secret)(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), UserID(c))
	assert.Equal(t, model.RoleStaff, Role(c))
	assert.Equal(t, uint64(3), Scope(c).TenantID)
}

func TestOptionalJWT(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/", nil)
	require.NoError(t, OptionalJWT(secret)(ok)(c))
	assert.Zero(t, UserID(c))
	assert.Equal(t, "anon", identity(c))

	c, _ = newCtx(http.MethodGet, "/", map[string]string{echo.HeaderAuthorization: "Bearer broken"})
	_, key := kindOf(t, OptionalJWT(secret)(ok)(c))
	assert.Equal(t, "auth.invalid_token", key)
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(model.RoleAdmin, model.RoleStaff)

	c, _ := newCtx(http.MethodGet, "/", nil)
	kind, _ := kindOf(t, mw(ok)(c))
	assert.Equal(t, usecase.KindUnauthorized, kind)

	c, _ = newCtx(http.MethodGet, "/", nil)
	c.Set(keyUserID, uint64(1))
	c.Set(keyRole, model.RoleCustomer)
	kind, _ = kindOf(t, mw(ok)(c))
	assert.Equal(t, usecase.KindForbidden, kind)

	c, rec := newCtx(http.MethodGet, "/", nil)
	c.Set(keyUserID, uint64(1))
	c.Set(keyRole, model.RoleStaff)
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeResolver map[string]*model.Tenant

func (f fakeResolver) Resolve(_ context.Context, slug string) (*model.Tenant, error) {
	if t, ok := f[slug]; ok {
		return t, nil
	}
	return nil, &usecase.Error{Kind: usecase.KindNotFound, Key: "tenant.not_found"}
}

func (f fakeResolver) ResolveID(_ context.Context, id uint64) (*model.Tenant, error) {
	for _, t := range f {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, &usecase.Error{Kind: usecase.KindNotFound, Key: "tenant.not_found"}
}

func TestTenantScope(t *testing.T) {
	tenants := fakeResolver{
		"club":  {ID: 1, Slug: "club", Locale: "es", IsActive: true},
		"other": {ID: 2, Slug: "other", Locale: "en", IsActive: true},
	}
	mw := TenantScope(tenants)

	t.Run("header", func(t *testing.T) {
		c, _ := newCtx(http.MethodGet, "/", map[string]string{HeaderTenant: " Club "})
		require.NoError(t, mw(ok)(c))
		require.NotNil(t, Tenant(c))
		assert.Equal(t, uint64(1), Scope(c).TenantID)
		assert.Equal(t, "es", Locale(c))
	})

	t.Run("token only", func(t *testing.T) {
		c, _ := newCtx(http.MethodGet, "/", nil)
		c.Set(keyTokenTenant, uint64(2))
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, "other", Tenant(c).Slug)
	})

	t.Run("missing", func(t *testing.T) {
		c, _ := newCtx(http.MethodGet, "/", nil)
		kind, key := kindOf(t, mw(ok)(c))
		assert.Equal(t, usecase.KindInvalid, kind)
		assert.Equal(t, "tenant.missing", key)
	})

	t.Run("token of another tenant", func(t *testing.T) {
		c, _ := newCtx(http.MethodGet, "/", map[string]string{HeaderTenant: "club"})
		c.Set(keyTokenTenant, uint64(2))
		kind, key := kindOf(t, mw(ok)(c))
		assert.Equal(t, usecase.KindForbidden, kind)
		assert.Equal(t, "tenant.mismatch", key)
	})

	t.Run("unknown", func(t *testing.T) {
		c, _ := newCtx(http.MethodGet, "/", map[string]string{HeaderTenant: "nope"})
		kind, _ := kindOf(t, mw(ok)(c))
		assert.Equal(t, usecase.KindNotFound, kind)
	})
}

type prefixMatcher struct{}

func (prefixMatcher) Match(accept string) string {
	if len(accept) >= 2 && accept[:2] == "es" {
		return "es"
	}
	return "en"
}

func TestNegotiateLocale(t *testing.T) {
	mw := NegotiateLocale(prefixMatcher{})

	c, _ := newCtx(http.MethodGet, "/?lang=es-AR", map[string]string{"Accept-Language": "en"})
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, "es", Locale(c))

	c, _ = newCtx(http.MethodGet, "/", map[string]string{"Accept-Language": "es;q=0.9"})
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, "es", Locale(c))

	c, _ = newCtx(http.MethodGet, "/", nil)
	c.Set(keyTenant, &model.Tenant{ID: 1, Locale: "es"})
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, "es", Locale(c), "tenant locale is the fallback")
}

func TestPlatformKey(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/", map[string]string{HeaderPlatformKey: "anything"})
	kind, _ := kindOf(t, PlatformKey("")(ok)(c))
	assert.Equal(t, usecase.KindNotFound, kind)

	c, _ = newCtx(http.MethodGet, "/", map[string]string{HeaderPlatformKey: "wrong"})
	_, key := kindOf(t, PlatformKey("k3y")(ok)(c))
	assert.Equal(t, "auth.platform_key", key)

	c, rec := newCtx(http.MethodGet, "/", map[string]string{HeaderPlatformKey: "k3y"})
	require.NoError(t, PlatformKey("k3y")(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimitBlocksWhenBucketIsEmpty(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
	mw := RateLimit(cfg, rdb, zap.NewNop())

	for i := 0; i < 2; i++ {
		c, rec := newCtx(http.MethodGet, "/", map[string]string{HeaderTenant: "club"})
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	c, rec := newCtx(http.MethodGet, "/", map[string]string{HeaderTenant: "club"})
	err := mw(ok)(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
	assert.Equal(t, "errors.rate_limited", he.Message)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderRetryAfter))

	// Buckets are per tenant.
	c, _ = newCtx(http.MethodGet, "/", map[string]string{HeaderTenant: "other"})
	require.NoError(t, mw(ok)(c))
}

func TestRateLimitPassesWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = down.Close() })

	c, rec := newCtx(http.MethodGet, "/", nil)
	require.NoError(t, RateLimit(cfg, down, zap.NewNop())(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newCtx(http.MethodGet, "/", nil)
	require.NoError(t, RateLimit(cfg, nil, nil)(ok)(c))
}

func TestRateLimitKeyStrategies(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/", map[string]string{HeaderTenant: "Club"})
	c.Set(keyUserID, uint64(9))

	assert.Equal(t, "rl:club:user:9", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	c.Set(keyTenant, &model.Tenant{ID: 4})
	assert.Equal(t, "rl:4:user:9", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	assert.Contains(t, rateKey(config.RateLimitConfig{Prefix: "rl"}, c), ":route:GET ")
}

func TestResponseCache(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20,
	}
	calls := 0
	h := ResponseCache(cfg, rdb, zap.NewNop())(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]int{"n": calls})
	})
	get := func(headers map[string]string, user uint64) *httptest.ResponseRecorder {
		c, rec := newCtx(http.MethodGet, "/v1/fields?page=1", headers)
		if user != 0 {
			c.Set(keyUserID, user)
		}
		require.NoError(t, h(c))
		return rec
	}

	first := get(map[string]string{HeaderTenant: "club"}, 0)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get(map[string]string{HeaderTenant: "club"}, 0)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	get(map[string]string{HeaderTenant: "other"}, 0)
	assert.Equal(t, 2, calls, "tenants never share entries")

	authed := get(map[string]string{HeaderTenant: "club"}, 5)
	assert.Empty(t, authed.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "cache"}
	calls := 0
	h := ResponseCache(cfg, rdb, nil)(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, map[string]string{"error": "x"})
	})
	for i := 0; i < 2; i++ {
		c, _ := newCtx(http.MethodGet, "/v1/fields/9", nil)
		require.NoError(t, h(c))
	}
	assert.Equal(t, 2, calls)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, valid := decodePayload(bs)
	require.True(t, valid)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, valid = decodePayload([]byte{0, 1})
	assert.False(t, valid)
}
