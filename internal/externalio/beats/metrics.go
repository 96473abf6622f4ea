package beats

import (
	"ser2sockd/internal/metrics"
	"time"
)

func (mirror *Mirror) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	if mirror == nil {
		return
	}
	recordTime := time.Now()

	add := func(name string, raw uint64, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   mirror.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("pending", uint64(len(mirror.events)), "count", metrics.Gauge, "Chunks waiting to be mirrored")
	add("queued_total", mirror.Metrics.Queued.Load(), "count", metrics.Counter, "Chunks accepted for mirroring")
	add("sent_total", mirror.Metrics.Sent.Load(), "count", metrics.Counter, "Chunks acknowledged by the beats server")
	add("dropped_total", mirror.Metrics.Dropped.Load(), "count", metrics.Counter, "Chunks that were not mirrored")
	add("send_failures_total", mirror.Metrics.SendFails.Load(), "count", metrics.Counter, "Failed sends to the beats server")
	add("dials_total", mirror.Metrics.Dials.Load(), "count", metrics.Counter, "Connections made to the beats server")
	return
}
