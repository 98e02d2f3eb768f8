package bot

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedQueueKeepsOrderPerKey(t *testing.T) {
	q := NewKeyedQueue(4)

	var mu sync.Mutex
	seen := map[int64][]int{}
	for i := 0; i < 200; i++ {
		key, n := int64(i%5), i
		require.NoError(t, q.Submit(key, func() {
			mu.Lock()
			seen[key] = append(seen[key], n)
			mu.Unlock()
		}))
	}
	q.Close()

	for key, order := range seen {
		require.Len(t, order, 40, "key %d", key)
		for i := 1; i < len(order); i++ {
			assert.Less(t, order[i-1], order[i], "key %d out of order", key)
		}
	}
}

func TestKeyedQueueNeverOverlapsOneKey(t *testing.T) {
	q := NewKeyedQueue(8)

	var running, overlaps atomic.Int32
	for i := 0; i < 50; i++ {
		require.NoError(t, q.Submit(1, func() {
			if running.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		}))
	}
	q.Close()

	assert.Zero(t, overlaps.Load())
}

func TestKeyedQueueRunsKeysConcurrently(t *testing.T) {
	q := NewKeyedQueue(2)

	release := make(chan struct{})
	started := make(chan int64, 2)
	for _, key := range []int64{1, 2} {
		key := key
		require.NoError(t, q.Submit(key, func() {
			started <- key
			<-release
		}))
	}

	// Both keys must be in flight before either is released
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("second key did not start while the first was blocked")
		}
	}
	close(release)
	q.Close()
}

func TestKeyedQueueRejectsAfterClose(t *testing.T) {
	q := NewKeyedQueue(1)
	q.Close()

	assert.ErrorIs(t, q.Submit(1, func() {}), ErrQueueClosed)
}
