package daemon

import (
	"context"
	"net/http"
	"ser2sockd/internal/externalio/beats"
	"ser2sockd/internal/network"
	"ser2sockd/internal/relay"
	"ser2sockd/internal/upstream"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// On-disk configuration. Every field can be overridden from SER2SOCKD_* environment variables.
type JSONConfig struct {
	Enabled      *bool `json:"enabled" env:"ENABLED"`
	LogVerbosity *int  `json:"logVerbosity,omitempty" env:"LOG_VERBOSITY"`
	Network      struct {
		Address              string `json:"address" env:"ADDRESS"`
		Port                 int    `json:"port" env:"PORT"`
		RequireConnectivity  *bool  `json:"requireConnectivity,omitempty" env:"REQUIRE_CONNECTIVITY"`
		ConnectivityInterval string `json:"connectivityInterval,omitempty" env:"CONNECTIVITY_INTERVAL"`
	} `json:"network" envPrefix:"NETWORK_"`
	ACL   string `json:"acl" env:"ACL"`
	Relay struct {
		MaxClients        int    `json:"maxClients,omitempty" env:"MAX_CLIENTS"`
		QueueCapacity     int    `json:"queueCapacity,omitempty" env:"QUEUE_CAPACITY"`
		ReadBufferSize    int    `json:"readBufferSize,omitempty" env:"READ_BUFFER_SIZE"`
		PollTimeout       string `json:"pollTimeout,omitempty" env:"POLL_TIMEOUT"`
		IdleBackoff       string `json:"idleBackoff,omitempty" env:"IDLE_BACKOFF"`
		BindRetryDelay    string `json:"bindRetryDelay,omitempty" env:"BIND_RETRY_DELAY"`
		KeepAliveIdle     string `json:"keepAliveIdle,omitempty" env:"KEEPALIVE_IDLE"`
		KeepAliveInterval string `json:"keepAliveInterval,omitempty" env:"KEEPALIVE_INTERVAL"`
		KeepAliveCount    int    `json:"keepAliveCount,omitempty" env:"KEEPALIVE_COUNT"`
	} `json:"relay" envPrefix:"RELAY_"`
	Source struct {
		Type           string `json:"type" env:"TYPE"`
		Device         string `json:"device,omitempty" env:"DEVICE"`
		Baud           int    `json:"baud,omitempty" env:"BAUD"`
		Address        string `json:"address,omitempty" env:"ADDRESS"`
		ReconnectDelay string `json:"reconnectDelay,omitempty" env:"RECONNECT_DELAY"`
	} `json:"source" envPrefix:"SOURCE_"`
	Mirror struct {
		BeatsAddress string `json:"beatsAddress,omitempty" env:"BEATS_ADDRESS"`
	} `json:"mirror" envPrefix:"MIRROR_"`
	Metrics struct {
		Interval          string `json:"collectionInterval" env:"COLLECTION_INTERVAL"`
		MaxAge            string `json:"maximumRetention,omitempty" env:"MAXIMUM_RETENTION"`
		EnableQueryServer bool   `json:"enableHTTPQueryServer" env:"ENABLE_HTTP_QUERY_SERVER"`
		QueryServerPort   int    `json:"HTTPQueryServerPort,omitempty" env:"HTTP_QUERY_SERVER_PORT"`
	} `json:"metrics" envPrefix:"METRICS_"`
}

type Config struct {
	Enabled      bool
	LogVerbosity int // -1 keeps the command line level

	// Network settings
	ListenIP             string
	ListenPort           int
	RequireConnectivity  bool
	ConnectivityInterval time.Duration

	// Admission
	ACL string

	// Relay settings
	MaxClients        int
	QueueCapacity     int
	ReadBufferSize    int
	PollTimeout       time.Duration
	IdleBackoff       time.Duration
	BindRetryDelay    time.Duration
	KeepAliveIdle     time.Duration
	KeepAliveInterval time.Duration
	KeepAliveCount    int

	// Upstream source
	SourceType           string
	SourceDevice         string
	SourceBaud           int
	SourceAddress        string
	SourceReconnectDelay time.Duration

	// Outputs
	BeatsEndpoint string

	// Metrics
	MetricQueryServerEnabled bool
	MetricQueryServerPort    int
	MetricCollectionInterval time.Duration
	MetricMaxAge             time.Duration
}

type Daemon struct {
	cfg        Config
	configPath string
	ctx        context.Context
	cancel     context.CancelFunc

	wg        sync.WaitGroup
	workers   *errgroup.Group
	workerCtx context.Context // cancelled on shutdown or first worker failure

	Relay            *relay.Relay
	Source           *upstream.Link
	Mirror           *beats.Mirror
	monitor          network.Monitor
	metricsCollector *Gatherer
	MetricServer     *http.Server
	shutdownOnce     sync.Once
}
