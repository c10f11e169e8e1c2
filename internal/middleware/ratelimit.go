package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Limiter decides whether another request from key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is a per-process sliding-window limiter.
type MemoryLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	requests  map[string][]time.Time
	lastSweep time.Time
}

// NewMemoryLimiter allows max requests per key in any window-long interval.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:      max,
		window:   window,
		now:      time.Now,
		requests: make(map[string][]time.Time),
	}
}

// Allow records the request when it fits. Once per window it also drops every
// key with no request left inside the window.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	windowStart := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !now.Before(l.lastSweep.Add(l.window)) {
		for k, times := range l.requests {
			if pruned := prune(times, windowStart); len(pruned) == 0 {
				delete(l.requests, k)
			} else {
				l.requests[k] = pruned
			}
		}
		l.lastSweep = now
	}

	valid := prune(l.requests[key], windowStart)
	if len(valid) >= l.max {
		if len(valid) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = valid
		}
		return false, nil
	}
	l.requests[key] = append(valid, now)
	return true, nil
}

// Keys reports how many clients are currently tracked.
func (l *MemoryLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

func prune(times []time.Time, windowStart time.Time) []time.Time {
	var valid []time.Time
	for _, ts := range times {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	return valid
}

// RedisLimiter is a fixed-window limiter shared by every process using the same Redis.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedisLimiter allows max requests per key per window.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window, prefix: "ratelimit:"}
}

// Allow increments the key's counter and starts its window on the first hit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(l.max), nil
}

// NewLimiter returns a RedisLimiter when redisURL is set, otherwise a MemoryLimiter.
func NewLimiter(redisURL string, max int, window time.Duration) (Limiter, error) {
	if redisURL == "" {
		return NewMemoryLimiter(max, window), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewRedisLimiter(redis.NewClient(opts), max, window), nil
}

// RateLimit rejects requests from a client IP once limiter refuses them. Limiter
// errors are logged and the request is let through. The client IP is the TCP
// peer address; forwarding headers are client-controlled and ignored.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			ok, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				log.WithError(err).WithField("client_ip", ip).Warn("Rate limiter unavailable")
				ok = true
			}
			if !ok {
				writeMsg(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP returns the host part of the request's peer address.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
