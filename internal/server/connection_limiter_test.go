package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionLimits_Global(t *testing.T) {
	limits := NewConnectionLimits(2, 10)

	ok, _ := limits.Acquire("10.0.0.1")
	require.True(t, ok)
	ok, _ = limits.Acquire("10.0.0.2")
	require.True(t, ok)

	ok, reason := limits.Acquire("10.0.0.3")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)

	// Releasing a slot makes room again
	limits.Release("10.0.0.1")
	ok, _ = limits.Acquire("10.0.0.3")
	assert.True(t, ok)
}

func TestConnectionLimits_PerIP(t *testing.T) {
	limits := NewConnectionLimits(100, 2)

	ok, _ := limits.Acquire("10.0.0.1")
	require.True(t, ok)
	ok, _ = limits.Acquire("10.0.0.1")
	require.True(t, ok)

	ok, reason := limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonPerIP, reason)

	// A different IP is unaffected
	ok, _ = limits.Acquire("10.0.0.2")
	assert.True(t, ok)
}

func TestConnectionLimits_RejectedAcquireHoldsNoSlot(t *testing.T) {
	limits := NewConnectionLimits(100, 1)

	ok, _ := limits.Acquire("10.0.0.1")
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		ok, _ := limits.Acquire("10.0.0.1")
		require.False(t, ok)
	}

	assert.Equal(t, int64(1), limits.Active())

	limits.Release("10.0.0.1")
	assert.Equal(t, int64(0), limits.Active())

	ok, _ = limits.Acquire("10.0.0.1")
	assert.True(t, ok)
}

func TestConnectionLimits_Concurrent(t *testing.T) {
	limits := NewConnectionLimits(50, 50)

	var wg sync.WaitGroup
	acquired := make(chan string, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.0.0.%d", n%20)
			if ok, _ := limits.Acquire(ip); ok {
				acquired <- ip
			}
		}(i)
	}
	wg.Wait()
	close(acquired)

	count := 0
	for ip := range acquired {
		count++
		defer limits.Release(ip)
	}

	assert.Equal(t, 50, count, "exactly the global limit must be admitted")
	assert.Equal(t, int64(50), limits.Active())
}
