package logctx

import (
	"ser2sockd/internal/global"
	"ser2sockd/internal/metrics"
	"time"
)

// Backlog and loss of the log buffer
func (logger *Logger) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()
	namespace := []string{global.NSLogger}

	collection = []metrics.Metric{
		{
			Name:        "pending_events",
			Description: "Events queued but not yet written",
			Namespace:   namespace,
			Type:        metrics.Gauge,
			Timestamp:   recordTime,
			Value:       metrics.MetricValue{Raw: uint64(logger.Pending()), Unit: "count", Interval: interval},
		},
		{
			Name:        "dropped_events_total",
			Description: "Events discarded because the backlog was full",
			Namespace:   namespace,
			Type:        metrics.Counter,
			Timestamp:   recordTime,
			Value:       metrics.MetricValue{Raw: logger.Dropped.Load(), Unit: "count", Interval: interval},
		},
	}
	return
}
