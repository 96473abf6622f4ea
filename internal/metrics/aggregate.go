package metrics

import (
	"fmt"
	"math"
	"ser2sockd/internal/calc"
	"ser2sockd/internal/global"
	"strconv"
	"time"
)

// Combines every value of a metric within the window into a single summary metric
func (registry *Registry) Aggregate(aggType string, name string, namespacePrefix []string, start, end time.Time) (result Metric, err error) {
	matches := registry.Search(name, namespacePrefix, start, end)
	if len(matches) == 0 {
		err = fmt.Errorf("no metrics named '%s' in the requested window", name)
		return
	}

	var sum float64
	values := make([]float64, 0, len(matches))
	minimum := math.Inf(1)
	maximum := math.Inf(-1)
	for _, metric := range matches {
		var value float64
		value, err = toFloat(metric.Value.Raw)
		if err != nil {
			err = fmt.Errorf("metric '%s' in %v: %w", metric.Name, metric.Namespace, err)
			return
		}
		sum += value
		values = append(values, value)
		minimum = math.Min(minimum, value)
		maximum = math.Max(maximum, value)
	}

	var value float64
	switch aggType {
	case global.MetricSum:
		value = sum
	case global.MetricMin:
		value = minimum
	case global.MetricMax:
		value = maximum
	case global.MetricAvg:
		value = sum / float64(len(matches))
	case global.MetricTAvg:
		value = calc.TrimmedMeanFloat64(values, global.TrimmedMeanRatio)
	default:
		err = fmt.Errorf("unknown aggregation type '%s'", aggType)
		return
	}

	last := matches[len(matches)-1]
	result = Metric{
		Name:        last.Name,
		Description: last.Description,
		Namespace:   namespacePrefix,
		Type:        Summary,
		Timestamp:   last.Timestamp,
		Value: MetricValue{
			Raw:      value,
			Unit:     last.Value.Unit,
			Interval: end.Sub(start),
		},
	}
	return
}

func toFloat(raw interface{}) (value float64, err error) {
	switch v := raw.(type) {
	case uint64:
		value = float64(v)
	case uint32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case float64:
		value = v
	case float32:
		value = float64(v)
	case string:
		value, err = strconv.ParseFloat(v, 64)
		if err != nil {
			err = fmt.Errorf("value '%s' is not numeric", v)
		}
	default:
		err = fmt.Errorf("value of type %T is not numeric", raw)
	}
	return
}
