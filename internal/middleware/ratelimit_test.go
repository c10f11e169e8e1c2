package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "other clients have their own window")

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
}

func newRedisLimiter(t *testing.T, max int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, max, window), mr
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	l, mr := newRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:10.0.0.1"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_ServerDown(t *testing.T) {
	l, mr := newRedisLimiter(t, 2, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	l, err := NewLimiter("", 5, time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLimiter{}, l)

	mr := miniredis.RunT(t)
	l, err = NewLimiter("redis://"+mr.Addr()+"/0", 5, time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &RedisLimiter{}, l)

	_, err = NewLimiter("://bad", 5, time.Minute)
	assert.Error(t, err)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestRateLimit(t *testing.T) {
	limiters := map[string]func(t *testing.T) Limiter{
		"memory": func(t *testing.T) Limiter { return NewMemoryLimiter(1, time.Minute) },
		"redis": func(t *testing.T) Limiter {
			l, _ := newRedisLimiter(t, 1, time.Minute)
			return l
		},
	}
	for name, newLimiter := range limiters {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/login", nil)
			req.RemoteAddr = "192.168.1.2:12345"

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})
			rateLimitHandler := RateLimit(newLimiter(t))(handler)

			// First request should succeed
			w := httptest.NewRecorder()
			rateLimitHandler.ServeHTTP(w, req)
			assert.True(t, handlerCalled)
			assert.Equal(t, http.StatusOK, w.Code)

			// Second request should be rate limited
			w = httptest.NewRecorder()
			handlerCalled = false
			rateLimitHandler.ServeHTTP(w, req)
			assert.False(t, handlerCalled)
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
		})
	}

	t.Run("limiter error lets request through", func(t *testing.T) {
		w := httptest.NewRecorder()
		handlerCalled := false
		RateLimit(failingLimiter{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})).ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", nil))
		assert.True(t, handlerCalled)
	})
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.1.1:5555"
	assert.Equal(t, "10.1.1.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.2.2.2")
	req.Header.Set("X-Forwarded-For", "10.3.3.3, 10.4.4.4")
	assert.Equal(t, "10.1.1.1", getClientIP(req), "forwarding headers are ignored")

	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", getClientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", getClientIP(req))
}

func TestRateLimit_SpoofedHeadersShareBucket(t *testing.T) {
	calls := 0
	handler := RateLimit(NewMemoryLimiter(2, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	limited := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, 48, limited)
}

func TestMemoryLimiter_DropsIdleKeys(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := l.Allow(ctx, fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		require.NoError(t, err)
	}
	assert.Equal(t, 100, l.Keys())

	now = now.Add(2 * time.Minute)
	ok, err := l.Allow(ctx, "10.9.9.9")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, l.Keys())
}
