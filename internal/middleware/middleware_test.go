package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/config"
)

func newContext(method, target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/holds")
	return c
}

func TestBuildRateKey(t *testing.T) {
	c := newContext(http.MethodPost, "/api/holds")
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_session_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:session:anon:route:POST /api/holds", buildRateKey(cfg, c))

	c.Request().Header.Set(SessionHintHeader, "s-1")
	assert.Equal(t, "rl:ip:10.0.0.1:session:s-1:route:POST /api/holds", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(cfg, c))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(1))
	assert.Equal(t, 2, retryAfterSeconds(1500))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"concerts":[]}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"concerts":[]}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestCacheKeyIgnoresQueryOrder(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	a := newContext(http.MethodGet, "/api/concerts?sortBy=title&sortOrder=desc")
	b := newContext(http.MethodGet, "/api/concerts?sortOrder=desc&sortBy=title")
	c := newContext(http.MethodGet, "/api/concerts?sortBy=venue")
	assert.Equal(t, cacheKeyFrom(cfg, a), cacheKeyFrom(cfg, b))
	assert.NotEqual(t, cacheKeyFrom(cfg, a), cacheKeyFrom(cfg, c))
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflowed())
	_, _ = cw.Write([]byte("de"))
	assert.True(t, cw.overflowed())
	assert.Equal(t, "abcde", rec.Body.String())
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	called := false
	h := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)(func(c echo.Context) error {
		called = true
		return nil
	})
	require.NoError(t, h(newContext(http.MethodPost, "/api/holds")))
	assert.True(t, called)
}
