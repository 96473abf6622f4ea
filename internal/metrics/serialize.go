package metrics

import (
	"fmt"
	"time"
)

// JSON form of the metric for the query server
func (inMetric Metric) Convert() JMetric {
	return JMetric{
		Name:        inMetric.Name,
		Description: inMetric.Description,
		Namespace:   namespaceKey(inMetric.Namespace),
		Type:        string(inMetric.Type),
		Timestamp:   inMetric.Timestamp.Format(time.RFC3339Nano),
		Value: JMetricValue{
			Raw:      fmt.Sprint(inMetric.Value.Raw),
			Unit:     inMetric.Value.Unit,
			Interval: inMetric.Value.Interval.String(),
		},
	}
}
