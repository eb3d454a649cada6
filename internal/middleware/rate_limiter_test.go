package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FixedWindow(t *testing.T) {
	l := NewLimiter("test", 3, time.Minute)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("10.0.0.1", now)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, end := l.Allow("10.0.0.1", now.Add(10*time.Second))
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), end)

	// other IPs have their own window
	ok, _ = l.Allow("10.0.0.2", now)
	assert.True(t, ok)

	// new window after expiry
	ok, _ = l.Allow("10.0.0.1", now.Add(61*time.Second))
	assert.True(t, ok)
}

func TestLimiter_Purge(t *testing.T) {
	l := NewLimiter("test", 1, time.Minute)
	now := time.Now()
	l.Allow("a", now)
	l.Allow("b", now.Add(50*time.Second))

	assert.Equal(t, 1, l.Purge(now.Add(70*time.Second)))
	assert.Equal(t, 1, l.Purge(now.Add(2*time.Minute)))
	assert.Equal(t, 0, l.Purge(now.Add(3*time.Minute)))
}

func TestRateLimiter_Middleware429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoginRateLimiter(NewLimiter("login", 2, time.Minute)))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		r.ServeHTTP(last, req)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	secs, err := strconv.Atoi(last.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, secs > 0 && secs <= 61, secs)
}
