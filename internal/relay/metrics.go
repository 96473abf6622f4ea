package relay

import (
	"ser2sockd/internal/metrics"
	"time"
)

// Relay counters, loop state, inbox and per-slot queue metrics
func (relay *Relay) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw uint64, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   relay.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	var listening uint64
	if _, ok := relay.Addr(); ok {
		listening = 1
	}

	add("state", uint64(relay.State()), "enum", metrics.Gauge, "Loop phase (0 idle, 1 binding, 2 polling, 3 draining)")
	add("listening", listening, "bool", metrics.Gauge, "Whether the listener is bound")
	add("active_clients", relay.Metrics.ActiveClients.Load(), "count", metrics.Gauge, "Clients currently connected")
	add("peak_clients", relay.Metrics.PeakClients.Load(), "count", metrics.Gauge, "Highest number of concurrent clients")
	add("accepted_total", relay.Metrics.Accepted.Load(), "count", metrics.Counter, "Clients admitted")
	add("rejected_acl_total", relay.Metrics.RejectedACL.Load(), "count", metrics.Counter, "Connections refused by the acl")
	add("rejected_capacity_total", relay.Metrics.RejectedCapacity.Load(), "count", metrics.Counter, "Connections refused because every slot was taken")
	add("tune_failures_total", relay.Metrics.TuneFailures.Load(), "count", metrics.Counter, "Connections dropped because socket options failed")
	add("disconnects_total", relay.Metrics.Disconnects.Load(), "count", metrics.Counter, "Client slots cleaned up")
	add("exceptions_total", relay.Metrics.Exceptions.Load(), "count", metrics.Counter, "Clients closed on a poll error or hangup")
	add("bytes_up_total", relay.Metrics.BytesUp.Load(), "bytes", metrics.Counter, "Bytes read from clients toward the source")
	add("bytes_down_total", relay.Metrics.BytesDown.Load(), "bytes", metrics.Counter, "Bytes sent to clients")
	add("broadcast_chunks_total", relay.Metrics.BroadcastChunks.Load(), "count", metrics.Counter, "Chunks broadcast to clients")
	add("broadcast_drops_total", relay.Metrics.BroadcastDrops.Load(), "count", metrics.Counter, "Per client chunk drops due to full queues")
	add("inbox_drops_total", relay.Metrics.InboxDrops.Load(), "count", metrics.Counter, "Published chunks dropped before reaching the loop")
	add("short_writes_total", relay.Metrics.ShortWrites.Load(), "count", metrics.Counter, "Partial sends whose remainder was discarded")
	add("write_drops_total", relay.Metrics.WriteDrops.Load(), "count", metrics.Counter, "Chunks discarded because the client socket would block")
	add("uplink_errors_total", relay.Metrics.UplinkErrors.Load(), "count", metrics.Counter, "Client data that could not be forwarded to the source")
	add("bind_failures_total", relay.Metrics.BindFailures.Load(), "count", metrics.Counter, "Failed listener setups")
	add("drains_total", relay.Metrics.Drains.Load(), "count", metrics.Counter, "Times every connection was closed")
	add("panics_total", relay.Metrics.Panics.Load(), "count", metrics.Counter, "Recovered loop panics")
	add("ticks_total", relay.Metrics.Ticks.Load(), "count", metrics.Counter, "Loop iterations")

	collection = append(collection, relay.inbox.CollectMetrics(interval)...)
	for i := range relay.slots {
		collection = append(collection, relay.slots[i].queue.CollectMetrics(interval)...)
	}
	return
}
