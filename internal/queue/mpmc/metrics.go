package mpmc

import (
	"ser2sockd/internal/metrics"
	"time"
)

func (queue *Queue[T]) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
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

	add("depth", queue.Metrics.Depth.Load(), "count", metrics.Gauge, "Current number of items in the queue")
	add("byte_sum", queue.Metrics.Bytes.Load(), "bytes", metrics.Gauge, "Byte sum of all items in the queue")
	add("push_attempts", queue.Metrics.PushAttempts.Load(), "count", metrics.Counter, "Total push attempts")
	add("push_success", queue.Metrics.PushSuccess.Load(), "count", metrics.Counter, "Total push attempts that succeeded")
	add("push_full", queue.Metrics.PushFull.Load(), "count", metrics.Counter, "Total items dropped because the queue was full")
	add("pop_success", queue.Metrics.PopSuccess.Load(), "count", metrics.Counter, "Total items handed to consumers")
	return
}
