package metrics

import "time"

// Drops every time slice older than maxAge relative to now. Returns how many were dropped.
func (registry *Registry) Prune(now time.Time, maxAge time.Duration) (dropped int) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	cutoff := now.Add(-maxAge)
	for timeSlice := range registry.buckets {
		if timeSlice.Before(cutoff) {
			delete(registry.buckets, timeSlice)
			dropped++
		}
	}
	return
}
