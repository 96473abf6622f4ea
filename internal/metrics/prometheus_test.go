package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromCollector_Collect(t *testing.T) {
	reg := New()
	older := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Minute)

	reg.Add(reg.NewTimeSlice(older, time.Second), []Metric{
		{Name: "active_clients", Namespace: []string{"Relay"}, Type: Gauge, Timestamp: older, Value: MetricValue{Raw: uint64(9)}},
	})
	reg.Add(reg.NewTimeSlice(newer, time.Second), []Metric{
		{Name: "active_clients", Namespace: []string{"Relay"}, Type: Gauge, Timestamp: newer, Value: MetricValue{Raw: uint64(3)}},
		{Name: "state", Namespace: []string{"Relay"}, Type: Gauge, Timestamp: newer, Value: MetricValue{Raw: "polling"}},
	})

	collector := NewPromCollector(reg, "ser2sockd")

	// Only the newest slice is exported and non-numeric values are skipped
	if count := testutil.CollectAndCount(collector); count != 1 {
		t.Fatalf("expected 1 exported metric, but got '%d'", count)
	}
	if value := testutil.ToFloat64(collector); value != 3 {
		t.Fatalf("expected newest active_clients 3, but got '%v'", value)
	}

	if count := testutil.CollectAndCount(NewPromCollector(New(), "ser2sockd")); count != 0 {
		t.Fatalf("expected empty registry to export nothing, but got '%d'", count)
	}
}

func TestPromCollector_Names(t *testing.T) {
	collector := NewPromCollector(New(), "ser2sockd")

	tests := []struct {
		name      string
		metric    Metric
		wantName  string
		wantLabel string
	}{
		{"relay counter", Metric{Name: "accepted_total", Namespace: []string{"Relay"}}, "ser2sockd_relay_accepted_total", ""},
		{"slot queue", Metric{Name: "depth", Namespace: []string{"Relay", "Client", "3", "Queue"}}, "ser2sockd_relay_client_queue_depth", "3"},
		{"invalid characters", Metric{Name: "bytes-read", Namespace: []string{"Source"}}, "ser2sockd_source_bytes_read", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, labels := collector.promName(tt.metric)
			if name != tt.wantName {
				t.Fatalf("expected name '%s', but got '%s'", tt.wantName, name)
			}
			if labels["slot"] != tt.wantLabel {
				t.Fatalf("expected slot label '%s', but got '%s'", tt.wantLabel, labels["slot"])
			}
		})
	}
}

func TestPromHandler(t *testing.T) {
	reg := New()
	now := time.Now()
	slice := reg.NewTimeSlice(now, time.Second)
	reg.Add(slice, []Metric{
		{Name: "active_clients", Description: "Clients currently connected", Namespace: []string{"Relay"}, Type: Gauge, Timestamp: now, Value: MetricValue{Raw: uint64(2)}},
		{Name: "depth", Description: "Queue depth", Namespace: []string{"Relay", "Client", "1", "Queue"}, Type: Gauge, Timestamp: now, Value: MetricValue{Raw: uint64(7)}},
		{Name: "depth", Description: "Queue depth", Namespace: []string{"Relay", "Client", "2", "Queue"}, Type: Gauge, Timestamp: now, Value: MetricValue{Raw: uint64(0)}},
		{Name: "accepted_total", Description: "Clients admitted", Namespace: []string{"Relay"}, Type: Counter, Timestamp: now, Value: MetricValue{Raw: uint64(11)}},
	})

	server := httptest.NewServer(PromHandler(reg, "ser2sockd"))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("expected no error scraping metrics, but got '%v'", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, but got '%d'", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		"ser2sockd_relay_active_clients 2",
		`ser2sockd_relay_client_queue_depth{slot="1"} 7`,
		"# TYPE ser2sockd_relay_accepted_total counter",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected scrape output to contain '%s'", want)
		}
	}
}
