// Optional mirror of source data to a beats (lumberjack v2) server
package beats

import (
	"ser2sockd/internal/global"
)

const (
	DefaultBuffer int = 256
)

// Creates new beats mirror. Returns nil if no endpoint. Connects lazily.
func NewMirror(namespace []string, endpoint string, sourceName string, buffer int) (mirror *Mirror) {
	if endpoint == "" {
		return
	}
	if buffer < 1 {
		buffer = DefaultBuffer
	}

	mirror = &Mirror{
		Namespace:  append(append([]string{}, namespace...), global.NSMirror),
		endpoint:   endpoint,
		sourceName: sourceName,
		events:     make(chan event, buffer),
		Metrics:    &MetricStorage{},
	}
	return
}
