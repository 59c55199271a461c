package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/v1/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r
}

func get(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter()
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "k", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "k", 3, time.Second)
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "other", 3, time.Second)
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "k", 3, time.Second)
	assert.True(t, ok)
}

func TestRateLimitKeysByRouteTemplate(t *testing.T) {
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true, RequestsPerSecond: 2}, NewLocalRateLimiter()))

	assert.Equal(t, http.StatusOK, get(r, "/v1/items/1").Code)
	assert.Equal(t, http.StatusOK, get(r, "/v1/items/2").Code)
	w := get(r, "/v1/items/3")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true, RequestsPerSecond: 1}, brokenLimiter{}))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/v1/items/1").Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := newEngine(NewRateLimitMiddleware(RateLimitConfig{Enabled: false, RequestsPerSecond: 1}, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/v1/items/1").Code)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := get(r, "/v1/items/1", RequestIDHeader, "req-123")
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = get(r, "/v1/items/1", RequestIDHeader, strings.Repeat("x", 200))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())
	w := get(r, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}
