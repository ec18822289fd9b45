// Package rate bounds request rates per client key over a fixed window with
// a defined reset cadence. Two backends: in-process (go-cache) for a single
// replica, redis for shared counters.
package rate

import (
	"context"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter answers whether one more event is allowed for key. Implementations
// must be safe under concurrent increment for the same key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
