// Package ratelimit throttles HTTP clients with per-route token buckets.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	capacity float64
	rate     float64 // tokens per second
	tokens   float64
	last     time.Time
}

func (b *bucket) refill(now time.Time) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
}

// Info describes the limit applied to a request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter tracks one bucket per client, route and method.
type Limiter struct {
	cfg     *Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a limiter. A nil config selects DefaultConfig. A
// background sweep of idle buckets runs until Stop is called.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.sweepLoop(cfg.CleanupInterval)
	}
	return l
}

// Allow consumes a token for the request if one is available.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.cfg.Enabled || l.cfg.Allowlist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.cfg.Denylist[clientID] {
		return false, Info{}
	}

	ep := MatchEndpoint(path, method, l.cfg.Endpoints)
	if ep == nil {
		ep = &EndpointConfig{Path: path, Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
	}
	if ep.Limit <= 0 || ep.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	key := clientID + " " + method + " " + ep.Path

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		capacity := ep.Burst
		if capacity <= 0 {
			capacity = ep.Limit
		}
		b = &bucket{
			capacity: float64(capacity),
			rate:     float64(ep.Limit) / ep.Window.Seconds(),
			tokens:   float64(capacity),
			last:     now,
		}
		l.buckets[key] = b
	}
	b.refill(now)

	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}

	info := Info{
		Allowed:   allowed,
		Limit:     ep.Limit,
		Remaining: int(b.tokens),
		ResetTime: now.Add(secondsToDuration((b.capacity - b.tokens) / b.rate)),
	}
	if !allowed {
		info.RetryAfter = secondsToDuration((1 - b.tokens) / b.rate)
	}
	return allowed, info
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets idle for longer than IdleTTL.
func (l *Limiter) sweep() {
	ttl := l.cfg.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
