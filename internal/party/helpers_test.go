package party

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
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

func newTestRegistry(t *testing.T, clock *fakeClock, mutate ...func(*Limits)) *Registry {
	t.Helper()

	limits := DefaultLimits()
	for _, m := range mutate {
		m(&limits)
	}
	reg, err := NewRegistry(limits, WithClock(clock.Now))
	require.NoError(t, err)
	return reg
}

// sequentialIDs returns a generator yielding ids from list, then numbered ids.
func sequentialIDs(list ...string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n <= len(list) {
			return list[n-1]
		}
		return fmt.Sprintf("room%012d", n)
	}
}
