package realtime

import "sync"

// queue is an unbounded FIFO between the listening connection and the
// delivery goroutine. Its ring doubles when full.
type queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ring   []T
	head   int
	size   int
	closed bool

	pushed  int64
	popped  int64
	resizes int
}

// queueStats is a point-in-time view of a queue.
type queueStats struct {
	Len     int
	Cap     int
	Pushed  int64
	Popped  int64
	Resizes int
}

func newQueue[T any](capacity int) *queue[T] {
	q := &queue[T]{ring: make([]T, max(capacity, 1))}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends v. It returns false once the queue is closed.
func (q *queue[T]) push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.size == len(q.ring) {
		q.growLocked()
	}
	q.ring[(q.head+q.size)%len(q.ring)] = v
	q.size++
	q.pushed++
	q.cond.Signal()
	return true
}

// pop blocks until an item is available. After close it drains the
// remaining items and then returns false.
func (q *queue[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.cond.Wait()
	}

	var zero T
	if q.size == 0 {
		return zero, false
	}
	v := q.ring[q.head]
	q.ring[q.head] = zero
	q.head = (q.head + 1) % len(q.ring)
	q.size--
	q.popped++
	return v, true
}

func (q *queue[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *queue[T]) stats() queueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return queueStats{
		Len:     q.size,
		Cap:     len(q.ring),
		Pushed:  q.pushed,
		Popped:  q.popped,
		Resizes: q.resizes,
	}
}

func (q *queue[T]) growLocked() {
	ring := make([]T, len(q.ring)*2)
	n := copy(ring, q.ring[q.head:])
	copy(ring[n:], q.ring[:q.head])
	q.ring = ring
	q.head = 0
	q.resizes++
}
