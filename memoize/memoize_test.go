package memoize

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGetComputesOnce(t *testing.T) {
	c := New[int, string]()
	var calls atomic.Int32
	compute := func() string {
		calls.Add(1)
		return "value"
	}
	assert.Equal(t, "value", c.Get(7, compute))
	assert.Equal(t, "value", c.Get(7, compute))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains(7))
}

func TestGetDistinctKeys(t *testing.T) {
	c := New[int, int]()
	var calls atomic.Int32
	for _, k := range []int{1, 2, 3} {
		got := c.Get(k, func() int {
			calls.Add(1)
			return k * 10
		})
		assert.Equal(t, k*10, got)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, c.Len())
}

func TestGetSingleFlight(t *testing.T) {
	c := New[string, int]()
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	var eg errgroup.Group
	eg.Go(func() error {
		got := c.Get("k", func() int {
			close(started)
			<-release
			calls.Add(1)
			return 42
		})
		if got != 42 {
			return errors.New("first caller got wrong value")
		}
		return nil
	})
	<-started
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			got := c.Get("k", func() int {
				calls.Add(1)
				return 42
			})
			if got != 42 {
				return errors.New("waiter got wrong value")
			}
			return nil
		})
	}
	time.Sleep(20 * time.Millisecond) // let the waiters queue up
	close(release)
	require.NoError(t, eg.Wait())
	assert.Equal(t, int32(1), calls.Load(), "concurrent misses must share one computation")
}

func TestTryGetErrorNotCached(t *testing.T) {
	c := New[int, string]()
	boom := errors.New("boom")
	var calls atomic.Int32

	_, err := c.TryGet(1, func() (string, error) {
		calls.Add(1)
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Contains(1))

	got, err := c.TryGet(1, func() (string, error) {
		calls.Add(1)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load(), "a failure must not suppress the next computation")
	assert.Equal(t, 1, c.Len())
}

func TestTryGetErrorSharedWithWaiters(t *testing.T) {
	c := New[int, int]()
	boom := errors.New("boom")
	release := make(chan struct{})
	started := make(chan struct{})

	var eg errgroup.Group
	eg.Go(func() error {
		_, err := c.TryGet(1, func() (int, error) {
			close(started)
			<-release
			return 0, boom
		})
		if !errors.Is(err, boom) {
			return errors.New("computing caller did not see the error")
		}
		return nil
	})
	<-started
	eg.Go(func() error {
		_, err := c.TryGet(1, func() (int, error) {
			return 0, errors.New("waiter must not compute")
		})
		if !errors.Is(err, boom) {
			return errors.New("waiter did not observe the shared failure")
		}
		return nil
	})
	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, eg.Wait())
	assert.Equal(t, 0, c.Len())
}

func TestGetOptionalAbsence(t *testing.T) {
	c := New[string, int]()
	var calls atomic.Int32

	got, ok := c.GetOptional("missing", func() (int, bool) {
		calls.Add(1)
		return 0, false
	})
	assert.False(t, ok)
	assert.Zero(t, got)
	assert.Equal(t, 0, c.Len(), "absence must not populate the cache")

	got, ok = c.GetOptional("missing", func() (int, bool) {
		calls.Add(1)
		return 99, true
	})
	assert.True(t, ok)
	assert.Equal(t, 99, got)
	assert.Equal(t, int32(2), calls.Load())

	// Presence is cached.
	got, ok = c.GetOptional("missing", func() (int, bool) {
		calls.Add(1)
		return 0, false
	})
	assert.True(t, ok)
	assert.Equal(t, 99, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTTLExpiry(t *testing.T) {
	c := New[int, int](WithTTL(50 * time.Millisecond))
	var calls atomic.Int32
	compute := func() int {
		calls.Add(1)
		return 1
	}
	c.Get(1, compute)
	c.Get(1, compute)
	assert.Equal(t, int32(1), calls.Load())
	time.Sleep(80 * time.Millisecond)
	c.Get(1, compute)
	assert.Equal(t, int32(2), calls.Load(), "an expired entry must be recomputed")
}

func TestCapacityEviction(t *testing.T) {
	c := New[int, int](WithCapacity(2))
	for k := 0; k < 3; k++ {
		c.Get(k, func() int { return k })
	}
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Contains(0), "the least recently used entry is evicted")
	assert.True(t, c.Contains(2))
}

func TestGetContextForwardsContext(t *testing.T) {
	type ctxKey struct{}
	c := New[int, string]()
	ctx := context.WithValue(context.Background(), ctxKey{}, "payload")
	got := c.GetContext(ctx, 1, func(ctx context.Context) string {
		v, _ := ctx.Value(ctxKey{}).(string)
		return v
	})
	assert.Equal(t, "payload", got)
}

func TestTryGetContextCancelledWait(t *testing.T) {
	c := New[int, int]()
	release := make(chan struct{})
	started := make(chan struct{})
	defer close(release)

	go func() {
		c.TryGet(1, func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.TryGetContext(ctx, 1, func(context.Context) (int, error) {
		return 0, errors.New("must not compute while another flight is live")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetOptionalContextCancelledWait(t *testing.T) {
	c := New[int, int]()
	release := make(chan struct{})
	started := make(chan struct{})
	defer close(release)

	go func() {
		c.GetOptional(1, func() (int, bool) {
			close(started)
			<-release
			return 1, true
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := c.GetOptionalContext(ctx, 1, func(context.Context) (int, bool) {
		return 0, true
	})
	assert.False(t, ok, "a cancelled wait reports absence")
}

func TestPurge(t *testing.T) {
	c := New[int, int]()
	c.Get(1, func() int { return 1 })
	c.Get(2, func() int { return 2 })
	require.Equal(t, 2, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
	var calls atomic.Int32
	c.Get(1, func() int { calls.Add(1); return 1 })
	assert.Equal(t, int32(1), calls.Load())
}

func TestComputePanicDoesNotStrandWaiters(t *testing.T) {
	c := New[int, int]()
	started := make(chan struct{})

	go func() {
		defer func() { _ = recover() }()
		c.Get(1, func() int {
			close(started)
			time.Sleep(10 * time.Millisecond)
			panic("compute failed hard")
		})
	}()
	<-started

	done := make(chan int, 1)
	go func() {
		done <- c.Get(1, func() int { return 7 })
	}()
	select {
	case got := <-done:
		assert.Equal(t, 7, got)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter deadlocked after a panicking computation")
	}
}
