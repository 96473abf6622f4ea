// Bounded FIFO of byte buffers with a drop-newest overflow policy
package bounded

import (
	"bytes"
	"fmt"
	"ser2sockd/internal/global"
)

// Creates an empty queue holding at most capacity buffers
func New(namespace []string, capacity int) (new *Queue, err error) {
	if capacity < 1 {
		err = fmt.Errorf("queue capacity must be at least 1, got %d", capacity)
		return
	}

	new = &Queue{
		Namespace: append(append([]string{}, namespace...), global.NSQueue),
		items:     make([][]byte, capacity),
		Metrics:   &MetricStorage{},
	}
	return
}

// Copies data into a newly allocated buffer at the tail.
// length 0 means data is a zero terminated string: bytes up to the first 0 (or all of data).
// length beyond data is clamped. A full queue rejects the item without allocating.
func (queue *Queue) Enqueue(data []byte, length int) (success bool) {
	queue.Metrics.EnqueueAttempts.Add(1)

	if queue.count == len(queue.items) {
		queue.Metrics.EnqueueFull.Add(1)
		return
	}

	if length == 0 {
		length = bytes.IndexByte(data, 0)
		if length < 0 {
			length = len(data)
		}
	} else if length > len(data) {
		length = len(data)
	} else if length < 0 {
		length = 0
	}

	buf := make([]byte, length)
	copy(buf, data[:length])

	tail := (queue.head + queue.count) % len(queue.items)
	queue.items[tail] = buf
	queue.count++

	queue.Metrics.EnqueueSuccess.Add(1)
	queue.Metrics.Depth.Add(1)
	queue.Metrics.Bytes.Add(uint64(length))
	success = true
	return
}

// Removes the oldest buffer and hands ownership to the caller
func (queue *Queue) Dequeue() (data []byte, ok bool) {
	if queue.count == 0 {
		return
	}

	data = queue.items[queue.head]
	queue.items[queue.head] = nil
	queue.head = (queue.head + 1) % len(queue.items)
	queue.count--

	queue.Metrics.Dequeues.Add(1)
	queue.Metrics.Depth.Add(^uint64(0))
	queue.Metrics.Bytes.Add(^uint64(len(data) - 1))
	ok = true
	return
}

// Drops every queued buffer. Returns how many were discarded.
func (queue *Queue) Clear() (dropped int) {
	for queue.count > 0 {
		queue.items[queue.head] = nil
		queue.head = (queue.head + 1) % len(queue.items)
		queue.count--
		dropped++
	}
	queue.head = 0

	queue.Metrics.Cleared.Add(uint64(dropped))
	queue.Metrics.Depth.Store(0)
	queue.Metrics.Bytes.Store(0)
	return
}

func (queue *Queue) IsEmpty() bool {
	return queue.count == 0
}

func (queue *Queue) Len() int {
	return queue.count
}

func (queue *Queue) Cap() int {
	return len(queue.items)
}
