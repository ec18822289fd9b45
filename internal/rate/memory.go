package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: fixed window on an in-process counter cache. Counters are
// keyed by (key, window start) and expire with the window, so a stale client
// costs one cache entry at most.
type MemoryLimiter struct {
	c      *gocache.Cache
	Max    int64
	Window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, window),
		Max:    int64(max),
		Window: window,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	ttl := winStart.Add(l.Window).Sub(now)
	k := fmt.Sprintf("%s:%d", strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	// Add is a no-op when the counter exists; Increment is atomic under the
	// cache mutex, so concurrent callers cannot double-count.
	_ = l.c.Add(k, int64(0), ttl)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// Counter expired between Add and Increment: start a fresh window.
		l.c.Set(k, int64(1), ttl)
		hits = 1
	}

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !allowed {
		res.RetryAfter = ttl
	}
	return res, nil
}
