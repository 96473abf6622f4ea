package metrics

import (
	"sync"
	"time"
)

// Time-bucketed store of relay, queue and upstream measurements
type Registry struct {
	mu      sync.RWMutex
	buckets map[time.Time]bucket
}

// One collection interval: joined namespace -> metric name -> metric
type bucket map[string]map[string]Metric

type MetricType string

const (
	Counter MetricType = "counter" // cumulative since start
	Gauge   MetricType = "gauge"   // point in time reading
	Summary MetricType = "summary" // derived from several readings (avg, tavg, min, max)
)

type Metric struct {
	Name        string
	Description string
	Namespace   []string // Relay/Client/2/Queue
	Value       MetricValue
	Type        MetricType
	Timestamp   time.Time
}

type MetricValue struct {
	Raw      any // uint64 or float64
	Unit     string
	Interval time.Duration // span the reading covers
}

// Wire form served by the query endpoints
type JMetric struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Namespace   string       `json:"namespace"`
	Value       JMetricValue `json:"value"`
	Type        string       `json:"type"`
	Timestamp   string       `json:"timestamp"`
}

type JMetricValue struct {
	Raw      string `json:"raw"`
	Unit     string `json:"unit"`
	Interval string `json:"interval"`
}
