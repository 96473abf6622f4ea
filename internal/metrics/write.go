package metrics

import "time"

// Opens the bucket for the interval containing now and returns its key.
// A non-positive interval keys the bucket on the exact instant.
func (registry *Registry) NewTimeSlice(now time.Time, interval time.Duration) (timeSlice time.Time) {
	timeSlice = now.Round(0)
	if interval > 0 {
		timeSlice = timeSlice.Truncate(interval)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.buckets[timeSlice]; !exists {
		registry.buckets[timeSlice] = make(bucket)
	}
	return
}

// Records a batch into an opened bucket. Batches for unknown slices are discarded.
func (registry *Registry) Add(timeSlice time.Time, batch []Metric) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	target, ok := registry.buckets[timeSlice]
	if !ok {
		return
	}
	for _, metric := range batch {
		target.put(metric)
	}
}
