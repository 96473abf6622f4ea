package server

import (
	"net/http"
	"ser2sockd/internal/global"
	"ser2sockd/internal/metrics"
	"strings"
)

// Recorded values in the requested window
func (queries *queryHandler) handleData(serverResponder http.ResponseWriter, clientRequest *http.Request) {
	start, end, err := requestWindow(clientRequest)
	if err != nil {
		http.Error(serverResponder, err.Error(), http.StatusBadRequest)
		return
	}

	found := queries.search(clientRequest.FormValue("name"), requestNamespace(clientRequest, global.DataPath), start, end)
	queries.respondMetrics(serverResponder, found)
}

// Metric catalogue without values
func (queries *queryHandler) handleDiscovery(serverResponder http.ResponseWriter, clientRequest *http.Request) {
	metricType := metrics.MetricType(strings.ToLower(clientRequest.FormValue("type")))
	switch metricType {
	case "", metrics.Counter, metrics.Gauge, metrics.Summary:
	default:
		http.Error(serverResponder, "unknown metric type", http.StatusBadRequest)
		return
	}

	found := queries.discover(
		clientRequest.FormValue("name"),
		clientRequest.FormValue("description"),
		requestNamespace(clientRequest, global.DiscoveryPath),
		clientRequest.FormValue("unit"),
		metricType,
	)
	queries.respondMetrics(serverResponder, found)
}

// One summary value over the requested window
func (queries *queryHandler) handleAggregation(serverResponder http.ResponseWriter, clientRequest *http.Request) {
	start, end, err := requestWindow(clientRequest)
	if err != nil {
		http.Error(serverResponder, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := queries.aggregate(
		clientRequest.FormValue("aggregation"),
		clientRequest.FormValue("name"),
		requestNamespace(clientRequest, global.AggregationPath),
		start, end,
	)
	if err != nil {
		jResp(queries.ctx, serverResponder, Jerror{Msg: err.Error()})
		return
	}
	jResp(queries.ctx, serverResponder, result.Convert())
}

func (queries *queryHandler) respondMetrics(serverResponder http.ResponseWriter, found []metrics.Metric) {
	if len(found) == 0 {
		jResp(queries.ctx, serverResponder, Jerror{Msg: "Search returned no results"})
		return
	}

	results := make([]metrics.JMetric, 0, len(found))
	for _, metric := range found {
		results = append(results, metric.Convert())
	}
	jResp(queries.ctx, serverResponder, results)
}
