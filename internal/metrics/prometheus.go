package metrics

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var invalidPromChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Exposes the newest registry slice in Prometheus text format
type PromCollector struct {
	registry *Registry
	prefix   string
}

func NewPromCollector(registry *Registry, prefix string) *PromCollector {
	return &PromCollector{registry: registry, prefix: prefix}
}

// Descriptors vary with what the registry holds, so none are declared up front (unchecked collector)
func (collector *PromCollector) Describe(ch chan<- *prometheus.Desc) {}

func (collector *PromCollector) Collect(ch chan<- prometheus.Metric) {
	for _, metric := range collector.registry.Latest("", nil) {
		value, err := toFloat(metric.Value.Raw)
		if err != nil {
			continue
		}

		valueType := prometheus.GaugeValue
		if metric.Type == Counter {
			valueType = prometheus.CounterValue
		}

		name, labels := collector.promName(metric)
		desc := prometheus.NewDesc(name, metric.Description, nil, labels)

		promMetric, err := prometheus.NewConstMetric(desc, valueType, value)
		if err != nil {
			continue
		}
		ch <- prometheus.NewMetricWithTimestamp(metric.Timestamp, promMetric)
	}
}

// Maps namespace and name to a metric name. Numeric namespace parts become a slot label.
func (collector *PromCollector) promName(metric Metric) (name string, labels prometheus.Labels) {
	parts := []string{collector.prefix}
	for _, part := range metric.Namespace {
		if part != "" && strings.Trim(part, "0123456789") == "" {
			if labels == nil {
				labels = prometheus.Labels{}
			}
			labels["slot"] = part
			continue
		}
		parts = append(parts, strings.ToLower(part))
	}
	parts = append(parts, metric.Name)

	name = invalidPromChars.ReplaceAllString(strings.Join(parts, "_"), "_")
	return
}

// HTTP handler serving registry metrics plus Go runtime and process metrics
func PromHandler(registry *Registry, prefix string) http.Handler {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		NewPromCollector(registry, prefix),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}
