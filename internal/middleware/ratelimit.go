package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter admits or refuses one request for key. When refused, retry is how long
// until the key's window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retry time.Duration, err error)
}

// Quota is a fixed-window budget: Limit requests per Window.
type Quota struct {
	Limit  int
	Window time.Duration
}

// Route quotas.
var (
	QuotaGlobal  = Quota{Limit: 100, Window: time.Minute}
	QuotaAuth    = Quota{Limit: 10, Window: time.Minute}
	QuotaBooking = Quota{Limit: 10, Window: time.Minute}
	QuotaContact = Quota{Limit: 5, Window: 10 * time.Minute}
)

type window struct {
	count int
	reset time.Time
}

// MemoryLimiter counts per key in process. Used when Redis is not configured.
type MemoryLimiter struct {
	quota Quota
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewMemoryLimiter(q Quota) *MemoryLimiter {
	return &MemoryLimiter{quota: q, now: time.Now, windows: make(map[string]*window)}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	w := m.windows[key]
	if w == nil || !now.Before(w.reset) {
		if len(m.windows) > 10000 {
			m.sweep(now)
		}
		w = &window{reset: now.Add(m.quota.Window)}
		m.windows[key] = w
	}
	if w.count >= m.quota.Limit {
		return false, w.reset.Sub(now), nil
	}
	w.count++
	return true, 0, nil
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.reset) {
			delete(m.windows, k)
		}
	}
}

// RateLimit limits by authenticated user when present, else by client IP. scope keeps
// separate buckets per route group (e.g. "auth", "booking"). A limiter error lets the
// request through.
func RateLimit(l Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":ip:" + c.ClientIP()
		if id := GetUserID(c); id != 0 {
			key = fmt.Sprintf("%s:user:%d", scope, id)
		}
		ok, retry, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Printf("[ratelimit] %s: %v", scope, err)
			c.Next()
			return
		}
		if !ok {
			secs := int((retry + time.Second - 1) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abort(c, http.StatusTooManyRequests, "too many requests, try again shortly")
			return
		}
		c.Next()
	}
}
