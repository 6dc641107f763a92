package ratelimit

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Counter is one client's fixed window.
type Counter struct {
	count     atomic.Int64
	expiresAt time.Time
}

func (c *Counter) Count() int64 { return c.count.Load() }

type Cache = ristretto.Cache[string, *Counter]

// NewCache builds the bounded counter cache. Each client costs 1, so
// maxClients is the number of windows held before eviction starts.
func NewCache(maxClients int) (*Cache, error) {
	if maxClients <= 0 {
		return nil, errors.New("maxClients must be positive")
	}
	return ristretto.NewCache(&ristretto.Config[string, *Counter]{
		NumCounters:        int64(maxClients) * 10,
		MaxCost:            int64(maxClients),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
}

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter admits at most Limit requests per client per Window. State is
// local to the process; several replicas each enforce their own limit.
type Limiter struct {
	cache  *Cache
	limit  int64
	window time.Duration
	now    func() time.Time

	initMu sync.Mutex
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func NewLimiter(cache *Cache, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if cache == nil {
		return nil, errors.New("nil cache")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("limit and window must be positive")
	}
	l := &Limiter{cache: cache, limit: int64(limit), window: window, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

func (l *Limiter) Allow(key string) bool {
	return l.Decide(key).Allowed
}

// Decide counts one request for key. A request over the limit is rejected
// without being counted.
func (l *Limiter) Decide(key string) Decision {
	now := l.now()
	c := l.counter(key, now)
	for {
		n := c.count.Load()
		if n >= l.limit {
			return Decision{RetryAfter: c.expiresAt.Sub(now)}
		}
		if c.count.CompareAndSwap(n, n+1) {
			return Decision{Allowed: true, Remaining: l.limit - n - 1}
		}
	}
}

func (l *Limiter) counter(key string, now time.Time) *Counter {
	if c, ok := l.cache.Get(key); ok && now.Before(c.expiresAt) {
		return c
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()
	if c, ok := l.cache.Get(key); ok && now.Before(c.expiresAt) {
		return c
	}
	c := &Counter{expiresAt: now.Add(l.window)}
	l.cache.SetWithTTL(key, c, 1, l.window)
	l.cache.Wait()
	return c
}

func (l *Limiter) Close() {
	l.cache.Close()
}
