package bounded

import (
	"ser2sockd/internal/metrics"
	"time"
)

func (queue *Queue) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw uint64, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   queue.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("depth", queue.Metrics.Depth.Load(), "count", metrics.Gauge, "Current number of buffers in the queue")
	add("byte_sum", queue.Metrics.Bytes.Load(), "bytes", metrics.Gauge, "Byte sum of all buffers in the queue")
	add("enqueue_attempts", queue.Metrics.EnqueueAttempts.Load(), "count", metrics.Counter, "Total enqueue attempts")
	add("enqueue_success", queue.Metrics.EnqueueSuccess.Load(), "count", metrics.Counter, "Total enqueue attempts that were accepted")
	add("enqueue_full", queue.Metrics.EnqueueFull.Load(), "count", metrics.Counter, "Total buffers dropped because the queue was full")
	add("dequeues", queue.Metrics.Dequeues.Load(), "count", metrics.Counter, "Total buffers handed to the socket writer")
	add("cleared", queue.Metrics.Cleared.Load(), "count", metrics.Counter, "Total buffers discarded on disconnect")
	return
}
