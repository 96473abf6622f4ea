// HTTP server to expose discovery and querying of metric data to other programs only on the local system
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"strconv"
	"strings"
)

// Read in web static files at compile time
//
//go:embed static-files/metric-help.html
var webFiles embed.FS

// Fills the help page placeholders for the given port
func renderHelpPage(port int) (page []byte, err error) {
	template, err := webFiles.ReadFile("static-files/metric-help.html")
	if err != nil {
		err = fmt.Errorf("failed reading metric help html page from internal fs: %v", err)
		return
	}

	replacer := strings.NewReplacer(
		"@@LISTEN_ADDR@@", global.HTTPListenAddr,
		"@@LISTEN_PORT@@", strconv.Itoa(port),
		"@@DATA_PATH@@", global.DataPath,
		"@@DISCOVER_PATH@@", global.DiscoveryPath,
		"@@AGGREGATION_PATH@@", global.AggregationPath,
		"@@PROMETHEUS_PATH@@", global.PrometheusPath,
	)
	page = []byte(replacer.Replace(string(template)))
	return
}

// Rejects anything but GET
func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		if clientRequest.Method != http.MethodGet {
			serverResponder.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(serverResponder, clientRequest)
	}
}

// Sets up HTTP listener configuration for metric querying. prometheus may be nil.
func SetupListener(ctx context.Context, port int, search DataSearcher, discover Discoverer, aggregation AggSearcher, prometheus http.Handler) (server *http.Server, err error) {
	helpPage, err := renderHelpPage(port)
	if err != nil {
		return
	}

	queries := &queryHandler{ctx: ctx, search: search, discover: discover, aggregate: aggregation}

	routes := map[string]http.HandlerFunc{
		"/": func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
			if clientRequest.URL.Path != "/" {
				serverResponder.WriteHeader(http.StatusNotFound)
				return
			}
			serverResponder.Header().Set("Content-Type", "text/html; charset=utf-8")
			serverResponder.WriteHeader(http.StatusOK)
			serverResponder.Write(helpPage)
		},
		global.DiscoveryPath:   queries.handleDiscovery,
		global.DataPath:        queries.handleData,
		global.AggregationPath: queries.handleAggregation,
	}
	if prometheus != nil {
		routes[global.PrometheusPath] = prometheus.ServeHTTP
	}

	requestMultiplexer := http.NewServeMux()
	for pattern, handler := range routes {
		requestMultiplexer.HandleFunc(pattern, getOnly(handler))
	}

	server = &http.Server{
		Addr:         global.HTTPListenAddr + ":" + strconv.Itoa(port),
		Handler:      requestMultiplexer,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: ctx}, "", 0),
	}
	return
}

// Starts the metric HTTP server and waits for requests
func Start(ctx context.Context, server *http.Server) {
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Metric query server starting on http://%s/\n", server.Addr)

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Metric query server failed to start: %v\n", err)
	}
}

// Encodes JSON and sends as response body
func jResp(ctx context.Context, serverResponder http.ResponseWriter, content any) {
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(content)
	if err != nil {
		serverResponder.WriteHeader(http.StatusInternalServerError)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed marshaling metric results: %v\n", err)
		return
	}
	serverResponder.Header().Set("Content-Type", "application/json")
	serverResponder.WriteHeader(http.StatusOK)
	serverResponder.Write(buf.Bytes())
}

// Logs HTTP server errors to internal program buffer (via context logger)
func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	logctx.LogEvent(logWriter.ctx, global.VerbosityStandard, global.ErrorLog, "%s\n", strings.TrimSpace(string(p)))
	return
}
