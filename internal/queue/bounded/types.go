package bounded

import "sync/atomic"

// Fixed capacity FIFO of independently owned byte buffers.
// Not safe for concurrent use; only Metrics may be read from other goroutines.
type Queue struct {
	Namespace []string
	items     [][]byte
	head      int // index of oldest item
	count     int
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Depth atomic.Uint64 // Current items in queue
	Bytes atomic.Uint64 // Current byte size in queue

	EnqueueAttempts atomic.Uint64 // every Enqueue call
	EnqueueSuccess  atomic.Uint64 // accepted items
	EnqueueFull     atomic.Uint64 // rejected because queue was at capacity
	Dequeues        atomic.Uint64 // items handed to a consumer
	Cleared         atomic.Uint64 // items discarded by Clear
}
