package mpmc

import "sync/atomic"

type cell[T any] struct {
	seq  atomic.Uint64
	data T
}

// Lock-free bounded ring shared between producer and consumer goroutines
type Queue[T any] struct {
	Namespace []string
	Size      int
	mask      uint64
	buf       []cell[T]
	head      atomic.Uint64
	tail      atomic.Uint64
	notEmpty  chan struct{}
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Depth atomic.Uint64 // Current items in queue
	Bytes atomic.Uint64 // Current byte size in queue (just data, caller supplied)

	PushAttempts atomic.Uint64 // every Push call
	PushSuccess  atomic.Uint64 // accepted items
	PushFull     atomic.Uint64 // rejected because ring was full
	PopSuccess   atomic.Uint64 // items handed to consumers
}
