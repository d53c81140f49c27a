package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAdmitUpToLimitThenThrottle(t *testing.T) {
	l := New(3, 360*time.Second)
	now := base.Add(10 * time.Second)

	for i := 0; i < 3; i++ {
		d := l.Admit(now)
		require.True(t, d.Allowed, "request %d", i)
		require.Equal(t, 2-i, d.Remaining)
	}
	d := l.Admit(now)
	require.False(t, d.Allowed)
	require.Equal(t, 360*time.Second, d.RetryAfter)

	st := l.Stats(now)
	require.Equal(t, 3, st.Admitted)
	require.Equal(t, uint64(1), st.Throttled)
}

func TestWindowRolloverReadmits(t *testing.T) {
	l := New(1, time.Second)
	require.True(t, l.Admit(base.Add(59*time.Second)).Allowed)
	require.False(t, l.Admit(base.Add(59*time.Second+999*time.Millisecond)).Allowed)
	require.True(t, l.Admit(base.Add(60*time.Second)).Allowed)
}

func TestThrottledDoesNotConsume(t *testing.T) {
	l := New(2, time.Second)
	now := base
	require.True(t, l.Admit(now).Allowed)
	require.True(t, l.Admit(now).Allowed)
	for i := 0; i < 5; i++ {
		require.False(t, l.Admit(now).Allowed)
	}
	require.Equal(t, 2, l.Stats(now).Admitted)
}

func TestDisabledLimit(t *testing.T) {
	l := New(0, time.Second)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Admit(base).Allowed)
	}
}

func TestStatsForStaleWindow(t *testing.T) {
	l := New(5, time.Second)
	l.Admit(base)
	st := l.Stats(base.Add(2 * time.Minute))
	require.Equal(t, 0, st.Admitted)
	require.Equal(t, base.Add(2*time.Minute), st.WindowStart)
}

func TestConcurrentAdmitIsExact(t *testing.T) {
	const limit = 50
	l := New(limit, time.Second)
	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit(base).Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(limit), admitted.Load())
}
