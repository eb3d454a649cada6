package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"obraspm/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana tracks requests of one client IP within a fixed window.
type ventana struct {
	count     int
	windowEnd time.Time
}

// Limiter is a per-IP fixed-window counter.
type Limiter struct {
	limit  int
	window time.Duration
	name   string

	mu      sync.Mutex
	entries map[string]*ventana
}

// NewLimiter allows limit requests per window for each client IP.
func NewLimiter(name string, limit int, window time.Duration) *Limiter {
	return &Limiter{limit: limit, window: window, name: name, entries: make(map[string]*ventana)}
}

// Allow counts one request for ip and reports whether it is within the
// limit, plus when the current window ends.
func (l *Limiter) Allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &ventana{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// Purge drops expired windows and returns how many were removed.
func (l *Limiter) Purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			n++
		}
	}
	return n
}

// RunPurge removes expired entries every interval until ctx is done, so
// IPs that never return do not accumulate.
func (l *Limiter) RunPurge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Purge(now); n > 0 {
				log.Debug().Str("limiter", l.name).Int("entries_purged", n).Msg("rate limiter purged")
			}
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.Allow(c.ClientIP(), time.Now())
		if !ok {
			secs := int(time.Until(end).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter(l *Limiter) gin.HandlerFunc {
	return l.Middleware("Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter is the general API limiter.
func RateLimiter(l *Limiter) gin.HandlerFunc {
	return l.Middleware("Demasiadas solicitudes. Intente nuevamente en un momento.")
}
