package bot

import (
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("queue is closed")

// KeyedQueue runs tasks in submission order per key and concurrently
// across keys, with at most workers tasks running at once.
type KeyedQueue struct {
	mu      sync.Mutex
	pending map[int64][]func()
	slots   chan struct{}
	wg      sync.WaitGroup
	closed  bool
}

// NewKeyedQueue creates a queue; workers below 1 means 1
func NewKeyedQueue(workers int) *KeyedQueue {
	if workers < 1 {
		workers = 1
	}
	return &KeyedQueue{
		pending: make(map[int64][]func()),
		slots:   make(chan struct{}, workers),
	}
}

// Submit schedules task after every earlier task with the same key
func (q *KeyedQueue) Submit(key int64, task func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.wg.Add(1)

	if backlog, busy := q.pending[key]; busy {
		q.pending[key] = append(backlog, task)
		return nil
	}
	// An empty backlog marks the key as running
	q.pending[key] = nil
	go q.drain(key, task)
	return nil
}

func (q *KeyedQueue) drain(key int64, task func()) {
	for {
		q.slots <- struct{}{}
		task()
		<-q.slots
		q.wg.Done()

		q.mu.Lock()
		backlog := q.pending[key]
		if len(backlog) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		task = backlog[0]
		q.pending[key] = backlog[1:]
		q.mu.Unlock()
	}
}

// Close rejects new tasks and waits for queued ones to finish
func (q *KeyedQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}
