package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimitMiddleware_PerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, zaptest.NewLogger(t)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("1.1.1.1"))
	assert.Equal(t, http.StatusOK, get("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("1.1.1.1"))
	assert.Equal(t, http.StatusOK, get("2.2.2.2"))
}

func TestRateLimiterStore_EvictsIdleIPs(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(1)
	store.now = func() time.Time { return clock }
	store.lastSweep = clock

	first := store.getLimiter("1.1.1.1")
	require.True(t, first.Allow())
	store.getLimiter("2.2.2.2")
	assert.Len(t, store.limiters, 2)

	clock = clock.Add(limiterIdleTTL / 2)
	assert.Same(t, first, store.getLimiter("1.1.1.1"))

	// 2.2.2.2 has been idle a full TTL; 1.1.1.1 only half of one.
	clock = clock.Add(limiterIdleTTL / 2)
	store.getLimiter("3.3.3.3")
	assert.Len(t, store.limiters, 2)
	assert.Contains(t, store.limiters, "1.1.1.1")
	assert.NotContains(t, store.limiters, "2.2.2.2")

	clock = clock.Add(2 * limiterIdleTTL)
	fresh := store.getLimiter("1.1.1.1")
	assert.NotSame(t, first, fresh)
	assert.Len(t, store.limiters, 1)
	assert.True(t, fresh.Allow())
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": " 9.9.9.9 , 1.2.3.4"}, "5.5.5.5:80", "9.9.9.9"},
		{"real ip", map[string]string{"X-Real-IP": "8.8.8.8"}, "5.5.5.5:80", "8.8.8.8"},
		{"remote with port", nil, "5.5.5.5:8080", "5.5.5.5"},
		{"remote bare", nil, "5.5.5.5", "5.5.5.5"},
		{"skips unparseable forwarded entries", map[string]string{"X-Forwarded-For": "unknown, 7.7.7.7"}, "5.5.5.5:80", "7.7.7.7"},
		{"garbage headers fall back to peer", map[string]string{"X-Forwarded-For": "evil", "X-Real-IP": "also-evil"}, "5.5.5.5:80", "5.5.5.5"},
		{"canonical ipv6", map[string]string{"X-Real-IP": "2001:DB8::1"}, "5.5.5.5:80", "2001:db8::1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, getClientIP(c))
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Get(utils.ContextLoggerKey)
		assert.True(t, ok)
		c.String(http.StatusOK, c.GetString(utils.ContextRequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	inbound := uuid.New().String()
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, inbound)
	r.ServeHTTP(w, req)
	assert.Equal(t, inbound, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}
