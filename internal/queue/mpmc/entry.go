// Multi-producer Multi-Consumer lock-free ring buffer queue with power-of-two capacity
package mpmc

import (
	"context"
	"fmt"
	"runtime"
	"ser2sockd/internal/atomics"
	"ser2sockd/internal/global"
)

// Creates a new queue. Capacity is rounded up to the next power of two.
func New[T any](namespace []string, capacity uint64) (new *Queue[T], err error) {
	if capacity < 2 {
		err = fmt.Errorf("capacity must be greater than or equal to 2")
		return
	}
	capacity = nextPowerOfTwo(capacity)

	buf := make([]cell[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		buf[i].seq.Store(i)
	}

	new = &Queue[T]{
		Namespace: append(append([]string{}, namespace...), global.NSQueue),
		Size:      int(capacity),
		mask:      capacity - 1,
		buf:       buf,
		notEmpty:  make(chan struct{}, 1),
		Metrics:   &MetricStorage{},
	}
	return
}

// Attempts to write an element (non success = queue full).
// size is the caller's byte accounting for the element.
func (queue *Queue[T]) Push(value T, size int) (success bool) {
	queue.Metrics.PushAttempts.Add(1)

	var pos uint64
	var slot *cell[T]
	for {
		pos = queue.tail.Load()
		slot = &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()

		if seq == pos {
			if queue.tail.CompareAndSwap(pos, pos+1) {
				break
			}
		} else if seq < pos {
			queue.Metrics.PushFull.Add(1)
			return
		} else {
			runtime.Gosched()
		}
	}

	// Gauges first so a racing consumer never decrements below the true count
	queue.Metrics.PushSuccess.Add(1)
	queue.Metrics.Depth.Add(1)
	queue.Metrics.Bytes.Add(uint64(size))

	slot.data = value
	slot.seq.Store(pos + 1)

	// notify blocked consumers, non-blocking
	select {
	case queue.notEmpty <- struct{}{}:
	default:
	}

	success = true
	return
}

// Non-blocking read. Returns false if empty.
func (queue *Queue[T]) TryPop(sizeOf func(T) int) (out T, success bool) {
	for {
		pos := queue.head.Load()
		slot := &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()

		if seq == pos+1 {
			if !queue.head.CompareAndSwap(pos, pos+1) {
				continue
			}
			out = slot.data
			var zero T
			slot.data = zero
			slot.seq.Store(pos + queue.mask + 1)

			queue.Metrics.PopSuccess.Add(1)
			atomics.Subtract(&queue.Metrics.Depth, 1, 4)
			if sizeOf != nil {
				atomics.Subtract(&queue.Metrics.Bytes, uint64(sizeOf(out)), 4)
			}
			success = true
			return
		}

		if seq < pos+1 {
			// empty
			return
		}

		// another consumer ahead, retry
		runtime.Gosched()
	}
}

// Blocking read. Returns false once ctx is done and nothing is queued.
func (queue *Queue[T]) Pop(ctx context.Context, sizeOf func(T) int) (out T, success bool) {
	for {
		out, success = queue.TryPop(sizeOf)
		if success {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-queue.notEmpty:
		}
	}
}

// Approximate number of queued elements
func (queue *Queue[T]) Len() int {
	return int(queue.Metrics.Depth.Load())
}

func nextPowerOfTwo(start uint64) (next uint64) {
	if start <= 1 {
		next = 1
		return
	}
	start--
	start |= start >> 1
	start |= start >> 2
	start |= start >> 4
	start |= start >> 8
	start |= start >> 16
	start |= start >> 32
	next = start + 1
	return
}
