package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	cfg.CleanupInterval = 0
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 3, DefaultWindow: time.Minute})

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("10.0.0.1", "/catalog", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 3, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	allowed, info := l.Allow("10.0.0.1", "/catalog", "GET")
	assert.False(t, allowed)
	assert.InDelta(t, float64(20*time.Second), float64(info.RetryAfter), float64(time.Millisecond))
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})

	for i := 0; i < 60; i++ {
		l.Allow("c", "/catalog", "GET")
	}
	allowed, _ := l.Allow("c", "/catalog", "GET")
	require.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = l.Allow("c", "/catalog", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/catalog", "GET")
	assert.False(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	allowed, _ := l.Allow("a", "/catalog", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("b", "/catalog", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("a", "/catalog", "GET")
	assert.False(t, allowed)
}

func TestLimiter_EndpointBurst(t *testing.T) {
	cfg := DefaultConfig()
	l, _ := newTestLimiter(t, cfg)

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("c", "/admin/login", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
	}
	allowed, _ := l.Allow("c", "/admin/login", "POST")
	assert.False(t, allowed)

	// Other routes use their own bucket.
	allowed, _ = l.Allow("c", "/analyze", "POST")
	assert.True(t, allowed)
}

func TestLimiter_AllowAndDenyLists(t *testing.T) {
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Allowlist:     map[string]bool{"trusted": true},
		Denylist:      map[string]bool{"banned": true},
	}
	l, _ := newTestLimiter(t, cfg)

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("trusted", "/catalog", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("banned", "/catalog", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: false, DefaultLimit: 1, DefaultWindow: time.Minute})
	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("c", "/analyze", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_Sweep(t *testing.T) {
	cfg := &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, IdleTTL: time.Hour}
	l, clock := newTestLimiter(t, cfg)

	l.Allow("c", "/catalog", "GET")
	require.Len(t, l.buckets, 1)

	clock.Advance(30 * time.Minute)
	l.sweep()
	assert.Len(t, l.buckets, 1)

	clock.Advance(31 * time.Minute)
	l.sweep()
	assert.Empty(t, l.buckets)
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/catalog", "GET"); ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), granted.Load())
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/admin/", Method: "GET", Limit: 5},
		{Path: "/admin/stats", Method: "GET", Limit: 1},
	}

	assert.Equal(t, 1, MatchEndpoint("/admin/stats", "GET", configs).Limit)
	assert.Equal(t, 5, MatchEndpoint("/admin/profiles", "GET", configs).Limit)
	assert.Nil(t, MatchEndpoint("/admin/profiles", "POST", configs))
	assert.Equal(t, 0, MatchEndpoint("/health", "GET", configs).Limit)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_ALLOWLIST", "127.0.0.1, ::1")

	cfg := LoadConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.True(t, cfg.Allowlist["::1"])
	assert.NotEmpty(t, cfg.Endpoints)
}
