package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Strob0t/pmreport/internal/logger"
)

// KeyFunc selects the bucket a request is charged against.
type KeyFunc func(r *http.Request) string

// SessionOrIP charges the session carried in the request context, falling
// back to the client address for requests outside a session route.
func SessionOrIP(r *http.Request) string {
	if id := logger.SessionID(r.Context()); id != "" {
		return "session:" + id
	}
	return "ip:" + remoteHost(r)
}

// RateLimiter is token bucket rate limiting middleware. Each key gets its own
// bucket of burst tokens refilled at rate tokens per second.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64
	burst      int
	maxBuckets int
	key        KeyFunc
	now        func() time.Time
}

type bucket struct {
	tokens    float64
	updatedAt time.Time
}

// NewRateLimiter creates a rate limiter keyed by key. A nil key uses
// SessionOrIP.
func NewRateLimiter(rate float64, burst int, key KeyFunc) *RateLimiter {
	if key == nil {
		key = SessionOrIP
	}
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		burst:      burst,
		maxBuckets: 100000,
		key:        key,
		now:        time.Now,
	}
}

// Handler rejects requests whose bucket is empty with 429 and a Retry-After
// header.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, retryAfter, allowed := rl.allow(rl.key(r))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many submissions"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow takes one token from the bucket for key. It returns the tokens left,
// the seconds until the next token and whether the request may proceed.
func (rl *RateLimiter) allow(key string) (remaining int, retryAfter float64, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= rl.maxBuckets {
			return 0, 1.0 / rl.rate, false
		}
		b = &bucket{tokens: float64(rl.burst) - 1, updatedAt: now}
		rl.buckets[key] = b
		return int(b.tokens), 0, true
	}

	b.tokens = math.Min(float64(rl.burst), b.tokens+now.Sub(b.updatedAt).Seconds()*rl.rate)
	b.updatedAt = now

	if b.tokens < 1 {
		return 0, (1 - b.tokens) / rl.rate, false
	}
	b.tokens--
	return int(b.tokens), 0, true
}

// RunCleanup drops buckets idle for longer than maxIdle every interval until
// ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.Forget(maxIdle)
		}
	}
}

// Forget removes buckets not charged within maxIdle and returns how many
// were removed.
func (rl *RateLimiter) Forget(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxIdle)
	n := 0
	for k, b := range rl.buckets {
		if b.updatedAt.Before(cutoff) {
			delete(rl.buckets, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// remoteHost extracts the client host from RemoteAddr. Forwarding headers are
// not trusted here.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
