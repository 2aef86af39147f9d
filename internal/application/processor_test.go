package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessAllBoundsInFlightAndKeepsOrder(t *testing.T) {
	items := make([]int, 40)
	for i := range items {
		items[i] = i + 1
	}
	var inFlight, peak atomic.Int32

	out, err := ProcessAll(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		// later items finish first
		time.Sleep(time.Duration(len(items)-n) * 100 * time.Microsecond)
		inFlight.Add(-1)
		return n * n, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	require.Len(t, out, len(items))
	for i, n := range items {
		assert.Equal(t, n*n, out[i])
	}
}

func TestProcessAllFirstErrorStopsNewWork(t *testing.T) {
	boom := errors.New("boom")
	var started atomic.Int32

	_, err := ProcessAll(context.Background(), []int{1, 2, 3, 4, 5, 6, 7, 8}, 1, func(_ context.Context, n int) (int, error) {
		started.Add(1)
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), started.Load())
}

func TestProcessAllWaitingItemSkippedAfterError(t *testing.T) {
	boom := errors.New("boom")
	var failedFirst, startedAfter atomic.Bool

	_, err := ProcessAll(context.Background(), []int{1, 2}, 1, func(_ context.Context, n int) (int, error) {
		if n == 1 {
			time.Sleep(20 * time.Millisecond)
			failedFirst.Store(true)
			return 0, boom
		}
		if failedFirst.Load() {
			startedAfter.Store(true)
		}
		return n, nil
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, startedAfter.Load())
}

func TestProcessAllDrainsInFlightWork(t *testing.T) {
	boom := errors.New("boom")
	var finished atomic.Int32

	_, err := ProcessAll(context.Background(), []int{1, 2, 3}, 3, func(ctx context.Context, n int) (int, error) {
		if n == 1 {
			time.Sleep(2 * time.Millisecond)
			return 0, boom
		}
		time.Sleep(20 * time.Millisecond)
		assert.NoError(t, ctx.Err())
		finished.Add(1)
		return n, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), finished.Load(), "in-flight items must finish before ProcessAll returns")
}

func TestProcessAllLimitBelowOne(t *testing.T) {
	var inFlight, peak atomic.Int32
	out, err := ProcessAll(context.Background(), []string{"a", "b", "c"}, 0, func(_ context.Context, s string) (string, error) {
		if cur := inFlight.Add(1); cur > peak.Load() {
			peak.Store(cur)
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return s + s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "bb", "cc"}, out)
	assert.Equal(t, int32(1), peak.Load())
}

func TestProcessAllEmpty(t *testing.T) {
	out, err := ProcessAll(context.Background(), []int(nil), 4, func(context.Context, int) (int, error) {
		t.Fatal("work must not be called")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}
