package ratelimiter_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testConfig = ratelimiter.Config{Capacity: 3, RefillRate: 3, RefillInterval: time.Minute}

func storeCases(t *testing.T, clock *fakeClock) map[string]ratelimiter.Store {
	t.Helper()

	mem := ratelimiter.NewMemoryStore(ratelimiter.WithMemoryClock(clock.Now), ratelimiter.WithCleanupInterval(0))
	t.Cleanup(mem.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rs, err := ratelimiter.NewRedisStore(client, ratelimiter.WithRedisClock(clock.Now))
	require.NoError(t, err)

	return map[string]ratelimiter.Store{"memory": mem, "redis": rs}
}

func TestBucket(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	for name, store := range storeCases(t, clock) {
		t.Run(name, func(t *testing.T) {
			b, err := ratelimiter.NewBucket(store, testConfig)
			require.NoError(t, err)

			for i := range 3 {
				res, err := b.Allow(t.Context(), name+"-ip")
				require.NoError(t, err)
				assert.True(t, res.Allowed(), "request %d", i)
				assert.Equal(t, 2-i, res.Remaining)
				assert.Equal(t, 3, res.Limit)
			}

			res, err := b.Allow(t.Context(), name+"-ip")
			require.NoError(t, err)
			assert.False(t, res.Allowed())

			other, err := b.Allow(t.Context(), name+"-other")
			require.NoError(t, err)
			assert.True(t, other.Allowed(), "keys are independent")

			status, err := b.Status(t.Context(), name+"-ip")
			require.NoError(t, err)
			assert.Equal(t, 0, status.Remaining, "denied requests do not consume")

			require.NoError(t, b.Reset(t.Context(), name+"-ip"))
			res, err = b.Allow(t.Context(), name+"-ip")
			require.NoError(t, err)
			assert.Equal(t, 2, res.Remaining)
		})
	}
}

func TestBucketRefill(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	stores := storeCases(t, clock)

	buckets := make(map[string]*ratelimiter.Bucket, len(stores))
	for name, store := range stores {
		b, err := ratelimiter.NewBucket(store, testConfig)
		require.NoError(t, err)
		buckets[name] = b
		for range 3 {
			_, err := b.Allow(t.Context(), "ip")
			require.NoError(t, err)
		}
	}

	clock.Advance(time.Minute)

	for name, b := range buckets {
		res, err := b.Allow(t.Context(), "ip")
		require.NoError(t, err, name)
		assert.True(t, res.Allowed(), name)
		assert.Equal(t, 2, res.Remaining, name)
		assert.Equal(t, clock.Now().Add(time.Minute).Unix(), res.ResetAt.Unix(), name)
	}
}

func TestNewBucketValidation(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()

	_, err := ratelimiter.NewBucket(store, ratelimiter.Config{})
	require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	_, err = ratelimiter.NewBucket(nil, testConfig)
	require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)

	b, err := ratelimiter.NewBucket(store, testConfig)
	require.NoError(t, err)
	_, err = b.AllowN(t.Context(), "k", 0)
	require.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestRedisStoreUnavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store, err := ratelimiter.NewRedisStore(client)
	require.NoError(t, err)

	mr.Close()
	_, _, err = store.ConsumeTokens(t.Context(), "k", 1, testConfig)
	require.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	mw := ratelimiter.Middleware(b, func(r *http.Request) string { return r.RemoteAddr },
		ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, _ *http.Request, _ *ratelimiter.Result) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
		}))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "slow down", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestComposite(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	short := ratelimiter.Composite(
		func(*http.Request) string { return "1.2.3.4" },
		func(*http.Request) string { return "" },
		func(*http.Request) string { return "signin" },
	)
	assert.Equal(t, "1.2.3.4:signin", short(r))

	long := ratelimiter.Composite(func(*http.Request) string { return strings.Repeat("x", 100) })
	assert.LessOrEqual(t, len(long(r)), 64)
}
