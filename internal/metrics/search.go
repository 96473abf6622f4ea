package metrics

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Exact or prefix namespace match. Empty query matches all.
func matchesNamespace(metricNS, queryNS []string) bool {
	return len(metricNS) >= len(queryNS) && slices.Equal(metricNS[:len(queryNS)], queryNS)
}

// Time slice keys within [start, end] oldest first. Zero bounds are open.
func (registry *Registry) slicesWithin(start, end time.Time) (timestamps []time.Time) {
	for ts := range registry.buckets {
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	slices.SortFunc(timestamps, time.Time.Compare)
	return
}

// Metrics of one time slice under namespacePrefix, optionally restricted to exact name
func (registry *Registry) sliceMatches(ts time.Time, name string, namespacePrefix []string) (results []Metric) {
	for nsKey, byName := range registry.buckets[ts] {
		if !matchesNamespace(strings.Split(nsKey, namespaceSep), namespacePrefix) {
			continue
		}
		if name != "" {
			if metric, ok := byName[name]; ok {
				results = append(results, metric)
			}
			continue
		}
		for _, metric := range byName {
			results = append(results, metric)
		}
	}
	return
}

func compareByNamespace(a, b Metric) int {
	return cmp.Or(
		cmp.Compare(namespaceKey(a.Namespace), namespaceKey(b.Namespace)),
		cmp.Compare(a.Name, b.Name),
	)
}

// Every metric named name (all names when empty) under namespacePrefix, oldest slice first.
// Zero start/end leave that side of the window open.
func (registry *Registry) Search(name string, namespacePrefix []string, start, end time.Time) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	for _, ts := range registry.slicesWithin(start, end) {
		results = append(results, registry.sliceMatches(ts, name, namespacePrefix)...)
	}
	return
}

// Metrics from the newest time slice only, filtered like Search, ordered by namespace then name
func (registry *Registry) Latest(name string, namespacePrefix []string) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	timestamps := registry.slicesWithin(time.Time{}, time.Time{})
	if len(timestamps) == 0 {
		return
	}

	results = registry.sliceMatches(timestamps[len(timestamps)-1], name, namespacePrefix)
	slices.SortFunc(results, compareByNamespace)
	return
}

// Catalogue of known metrics without values or timestamps. Name and description match by
// substring, unit and type exactly. Empty filters match everything.
func (registry *Registry) Discover(name, description string, namespacePrefix []string, unit string, metricType MetricType) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	type catalogueKey struct {
		namespace, name, unit string
		kind                  MetricType
	}
	seen := make(map[catalogueKey]bool)

	for ts := range registry.buckets {
		for _, metric := range registry.sliceMatches(ts, "", namespacePrefix) {
			if !strings.Contains(metric.Name, name) || !strings.Contains(metric.Description, description) {
				continue
			}
			if (unit != "" && metric.Value.Unit != unit) || (metricType != "" && metric.Type != metricType) {
				continue
			}

			key := catalogueKey{namespaceKey(metric.Namespace), metric.Name, metric.Value.Unit, metric.Type}
			if seen[key] {
				continue
			}
			seen[key] = true

			results = append(results, Metric{
				Name:        metric.Name,
				Description: metric.Description,
				Namespace:   metric.Namespace,
				Type:        metric.Type,
				Value:       MetricValue{Unit: metric.Value.Unit},
			})
		}
	}

	slices.SortFunc(results, func(a, b Metric) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), compareByNamespace(a, b))
	})
	return
}
