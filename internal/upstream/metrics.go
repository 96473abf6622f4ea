package upstream

import (
	"ser2sockd/internal/metrics"
	"time"
)

func (link *Link) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw uint64, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   link.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("connected", link.Metrics.Connected.Load(), "bool", metrics.Gauge, "Whether the source stream is open")
	add("connects_total", link.Metrics.Connects.Load(), "count", metrics.Counter, "Successful source opens")
	add("connect_failures_total", link.Metrics.ConnectFailures.Load(), "count", metrics.Counter, "Failed source opens")
	add("disconnects_total", link.Metrics.Disconnects.Load(), "count", metrics.Counter, "Source streams lost after opening")
	add("chunks_read_total", link.Metrics.ChunksRead.Load(), "count", metrics.Counter, "Chunks read from the source")
	add("bytes_read_total", link.Metrics.BytesRead.Load(), "bytes", metrics.Counter, "Bytes read from the source")
	add("publish_drops_total", link.Metrics.PublishDrops.Load(), "count", metrics.Counter, "Source chunks the relay could not accept")
	add("bytes_written_total", link.Metrics.BytesWritten.Load(), "bytes", metrics.Counter, "Client bytes written to the source")
	add("write_errors_total", link.Metrics.WriteErrors.Load(), "count", metrics.Counter, "Failed writes to the source")
	add("uplink_drops_total", link.Metrics.UplinkDrops.Load(), "count", metrics.Counter, "Client chunks dropped before reaching the source")

	collection = append(collection, link.uplink.CollectMetrics(interval)...)
	return
}
