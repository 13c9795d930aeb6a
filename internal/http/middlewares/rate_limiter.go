package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CounterStore counts hits per key inside a fixed window. Hit returns the
// count including this hit and how long until the window resets.
type CounterStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type RateLimiter struct {
	store  CounterStore
	window time.Duration
	limit  int64
}

func NewRateLimiter(store CounterStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  int64(limit),
		window: window,
	}
}

// Middleware returns a gin.HandlerFunc that enforces rate limit for a derived key

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived

			key = clientIP(c)
		}

		count, resetIn, err := rl.store.Hit(c.Request.Context(), key, rl.window)

		if err != nil {
			// counters down must not take auth down with them
			slog.Default().Warn("rate limit store unavailable", "error", err)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(resetIn.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// MemoryCounterStore is the single-instance default, a fixed window per key.
type MemoryCounterStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{clients: make(map[string]*clientBucket)}
}

func (s *MemoryCounterStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]

	if !ok || now.After(b.windowEnd) {
		s.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(window)}
		return 1, window, nil
	}

	b.count++
	return b.count, time.Until(b.windowEnd), nil
}

// RedisCounterStore shares counters across instances. Any client with an
// INCR+EXPIRE pipeline satisfies Hitter, internal/queue/redisclient does.
type Hitter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounterStore struct {
	client Hitter
}

func NewRedisCounterStore(client Hitter) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := s.client.Hit(ctx, "ratelimit:"+key, window)

	if err != nil {
		return 0, 0, err
	}

	// fixed-window reset is at most one window away
	return count, window, nil
}

// helper functions

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available

func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	// Normalize ipv6 zone

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
