package beats

import (
	"sync/atomic"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Copies source chunks to a beats (lumberjack v2) server
type Mirror struct {
	Namespace  []string
	endpoint   string
	sourceName string
	events     chan event
	sink       *lumberjack.SyncClient
	retryAfter time.Time
	Metrics    *MetricStorage
}

type event struct {
	timestamp time.Time
	data      []byte
}

type MetricStorage struct {
	Queued    atomic.Uint64 // Events accepted for sending
	Sent      atomic.Uint64 // Events acknowledged by the server
	Dropped   atomic.Uint64 // Events discarded (channel full or server unavailable)
	SendFails atomic.Uint64 // Failed send attempts
	Dials     atomic.Uint64 // Connections established
}
