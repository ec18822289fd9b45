package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBudget(t *testing.T) {
	l := NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d should be allowed", i)
		require.Equal(t, int64(3-i), res.Remaining)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed, "4th request in window must be rejected")
	require.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestMemoryLimiterPerKey(t *testing.T) {
	l := NewMemoryLimiter(1, time.Hour)
	ctx := context.Background()

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	// A different origin has its own budget.
	res, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	l := NewMemoryLimiter(1, 500*time.Millisecond)
	ctx := context.Background()

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	time.Sleep(600 * time.Millisecond)

	res, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed, "new window must reset the budget")
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	const n = 50
	l := NewMemoryLimiter(n/2, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(ctx, "same-key")
			if err != nil {
				t.Error(err)
				return
			}
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, n/2, allowed, "exactly the budget must pass under contention")
}
