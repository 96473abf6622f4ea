// Central registry for storing time-based metrics and their associated data
package metrics

import (
	"strings"
	"time"
)

const namespaceSep string = "/"

func New() (registry *Registry) {
	registry = &Registry{buckets: make(map[time.Time]bucket)}
	return
}

func namespaceKey(namespace []string) (key string) {
	key = strings.Join(namespace, namespaceSep)
	return
}

// Stores metric, replacing an earlier reading with the same namespace and name
func (b bucket) put(metric Metric) {
	key := namespaceKey(metric.Namespace)
	byName, ok := b[key]
	if !ok {
		byName = make(map[string]Metric)
		b[key] = byName
	}
	byName[metric.Name] = metric
}
