package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgVersion  string = "v1.2.0"
	ProgBaseName string = "ser2sockd"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultConfigPath string = "/etc/ser2sockd.json"
	DefaultEnvFile    string = "/etc/default/ser2sockd"
	EnvPrefix         string = "SER2SOCKD_"

	// Relay defaults
	DefaultListenAddr      string        = "0.0.0.0"
	DefaultListenPort      int           = 10000
	DefaultMaxConnections  int           = 5 // listener + clients
	DefaultQueueCapacity   int           = 30
	DefaultReadBufferSize  int           = 1024
	DefaultInboxSize       uint64        = 64
	DefaultPollTimeout     time.Duration = 50 * time.Microsecond
	DefaultIdleBackoff     time.Duration = 10 * time.Millisecond
	DefaultBindRetryDelay  time.Duration = 3 * time.Second
	DefaultKeepAliveIdle   time.Duration = 5 * time.Second
	DefaultKeepAliveIntvl  time.Duration = 5 * time.Second
	DefaultKeepAliveCount  int           = 3
	DefaultListenBacklog   int           = 4
	DefaultACL             string        = "0.0.0.0/0"
	DefaultConnCheckPeriod time.Duration = 2 * time.Second

	// Upstream source defaults
	DefaultSerialDevice   string        = "/dev/ttyUSB0"
	DefaultSerialBaud     int           = 115200
	DefaultSerialTimeout  time.Duration = 100 * time.Millisecond
	DefaultReconnectDelay time.Duration = 3 * time.Second
	DefaultUplinkSize     uint64        = 64

	// Fraction of free system memory that all client queues may occupy at worst
	MaxQueueMemoryRatio float64 = 0.10

	// Timeout values
	ShutdownTimeout time.Duration = 5 * time.Second

	// Metric HTTP server
	HTTPListenPort   int           = 20000 // Default listen port
	HTTPListenAddr   string        = "localhost"
	HTTPReadTimeout  time.Duration = 30 * time.Second
	HTTPWriteTimeout time.Duration = 10 * time.Second
	HTTPIdleTimeout  time.Duration = 180 * time.Second
	DataPath         string        = "/data/"
	DiscoveryPath    string        = "/discover/"
	PrometheusPath   string        = "/metrics"

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSCLI       string = "CLI"
	NSDaemon    string = "Daemon"
	NSRelay     string = "Relay"
	NSListen    string = "Listener"
	NSClient    string = "Client"
	NSQueue     string = "Queue"
	NSInbox     string = "Inbox"
	NSUplink    string = "Uplink"
	NSSource    string = "Source"
	NSMirror    string = "Mirror"
	NSNetwork   string = "Network"
	NSLifecycle string = "Lifecycle"
	NSLogger    string = "Logger"
)

const (
	// Aggregation types for metric queries
	MetricSum  string = "sum"
	MetricMin  string = "min"
	MetricMax  string = "max"
	MetricAvg  string = "avg"
	MetricTAvg string = "tavg" // mean without the top and bottom TrimmedMeanRatio of values

	TrimmedMeanRatio float64 = 0.10

	AggregationPath string = "/aggregate/"
)
