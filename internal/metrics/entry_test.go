package metrics

import (
	"testing"
	"time"
)

const fixtureInterval = time.Minute

func sample(ts time.Time, namespace []string, name, description string, kind MetricType, raw any, unit string) Metric {
	return Metric{
		Name:        name,
		Description: description,
		Namespace:   namespace,
		Type:        kind,
		Timestamp:   ts,
		Value:       MetricValue{Raw: raw, Unit: unit, Interval: fixtureInterval},
	}
}

// Three one-minute slices of relay metrics. Raw values deliberately mix numeric types
// (and one string and one non-numeric) for the aggregation paths.
func setupRegistryWithData(t *testing.T) (registry *Registry, stamps map[string]time.Time) {
	t.Helper()

	registry = New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inbox := []string{"Relay", "Inbox"}
	client := []string{"Relay", "Client"}

	ts1 := registry.NewTimeSlice(base, fixtureInterval)
	ts2 := registry.NewTimeSlice(base.Add(fixtureInterval), fixtureInterval)
	ts3 := registry.NewTimeSlice(base.Add(2*fixtureInterval), fixtureInterval)

	registry.Add(ts1, []Metric{
		sample(ts1, inbox, "depth", "inbox depth", Gauge, uint64(10), "count"),
		sample(ts1, client, "depth", "client queue depth", Gauge, 5, "count"),
		sample(ts1, inbox, "poll_time", "poll duration", Summary, 100.0, "ms"),
	})
	registry.Add(ts2, []Metric{
		sample(ts2, inbox, "depth", "inbox depth", Gauge, int64(20), "count"),
		sample(ts2, client, "accepted_total", "clients admitted", Counter, uint64(5), "count"),
		sample(ts2, inbox, "poll_time", "poll duration", Summary, "150", "us"),
	})
	registry.Add(ts3, []Metric{
		sample(ts3, inbox, "depth", "inbox depth", Gauge, -5, "count"),
		sample(ts3, inbox, "bad_metric", "broken", Gauge, struct{}{}, "count"),
	})

	stamps = map[string]time.Time{"ts1": ts1, "ts2": ts2, "ts3": ts3}
	return
}

func TestRegistry_AddRequiresTimeSlice(t *testing.T) {
	registry := New()
	now := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)

	// Unknown slice is ignored
	registry.Add(now, []Metric{sample(now, []string{"Relay"}, "ticks_total", "", Counter, uint64(1), "count")})
	if got := registry.Search("", nil, time.Time{}, time.Time{}); len(got) != 0 {
		t.Fatalf("expected nothing stored without a time slice, but got '%d'", len(got))
	}

	slice := registry.NewTimeSlice(now, fixtureInterval)
	if !slice.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected slice truncated to the minute, but got '%v'", slice)
	}

	// Same name and namespace within a slice keeps the latest write
	registry.Add(slice, []Metric{sample(slice, []string{"Relay"}, "ticks_total", "", Counter, uint64(1), "count")})
	registry.Add(slice, []Metric{sample(slice, []string{"Relay"}, "ticks_total", "", Counter, uint64(2), "count")})
	got := registry.Search("ticks_total", nil, time.Time{}, time.Time{})
	if len(got) != 1 || got[0].Value.Raw != uint64(2) {
		t.Fatalf("expected single overwritten value 2, but got '%v'", got)
	}
}

func TestRegistry_NewTimeSliceZeroInterval(t *testing.T) {
	registry := New()
	now := time.Date(2026, 1, 1, 0, 0, 30, 5, time.UTC)

	slice := registry.NewTimeSlice(now, 0)
	if !slice.Equal(now) {
		t.Fatalf("expected untruncated slice, but got '%v'", slice)
	}
}
