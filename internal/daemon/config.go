package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"ser2sockd/internal/acl"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pbnjay/memory"
)

// Loads JSON config from file, then applies overrides from the environment (and the optional env file)
func LoadConfig(path string) (cfg JSONConfig, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %v", err)
		return
	}

	err = json.Unmarshal(configFile, &cfg)
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %v", path, err)
		return
	}

	err = applyEnvironment(&cfg, global.DefaultEnvFile)
	return
}

// Overlays SER2SOCKD_* variables. Variables already in the process environment win over the env file.
// The file is re-read on every call and never copied into the process environment.
func applyEnvironment(cfg *JSONConfig, envFile string) (err error) {
	environment := env.ToMap(os.Environ())

	if envFile != "" {
		var fileVars map[string]string
		fileVars, err = godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("failed to load environment file '%s': %v", envFile, err)
			return
		}
		err = nil

		for key, value := range fileVars {
			if _, set := environment[key]; !set {
				environment[key] = value
			}
		}
	}

	err = env.ParseWithOptions(cfg, env.Options{
		Prefix:      global.EnvPrefix,
		Environment: environment,
	})
	if err != nil {
		err = fmt.Errorf("invalid environment override: %v", err)
		return
	}
	return
}

// Parses JSON config into daemon config
func (cfg JSONConfig) NewDaemonConf() (config Config, err error) {
	config.Enabled = cfg.Enabled == nil || *cfg.Enabled

	config.LogVerbosity = -1
	if cfg.LogVerbosity != nil {
		if *cfg.LogVerbosity < global.VerbosityNone || *cfg.LogVerbosity > global.VerbosityDebug {
			err = fmt.Errorf("log verbosity must be between %d and %d", global.VerbosityNone, global.VerbosityDebug)
			return
		}
		config.LogVerbosity = *cfg.LogVerbosity
	}

	// Network settings
	config.ListenIP = cfg.Network.Address
	config.ListenPort = cfg.Network.Port
	config.RequireConnectivity = cfg.Network.RequireConnectivity == nil || *cfg.Network.RequireConnectivity
	config.ConnectivityInterval, err = parseDuration("connectivity interval", cfg.Network.ConnectivityInterval)
	if err != nil {
		return
	}

	config.ACL = cfg.ACL
	_, err = acl.Parse(config.ACL)
	if err != nil {
		err = fmt.Errorf("invalid acl '%s': %v", config.ACL, err)
		return
	}

	// Relay settings
	config.MaxClients = cfg.Relay.MaxClients
	config.QueueCapacity = cfg.Relay.QueueCapacity
	config.ReadBufferSize = cfg.Relay.ReadBufferSize
	config.KeepAliveCount = cfg.Relay.KeepAliveCount
	config.PollTimeout, err = parseDuration("poll timeout", cfg.Relay.PollTimeout)
	if err != nil {
		return
	}
	config.IdleBackoff, err = parseDuration("idle backoff", cfg.Relay.IdleBackoff)
	if err != nil {
		return
	}
	config.BindRetryDelay, err = parseDuration("bind retry delay", cfg.Relay.BindRetryDelay)
	if err != nil {
		return
	}
	config.KeepAliveIdle, err = parseDuration("keep-alive idle", cfg.Relay.KeepAliveIdle)
	if err != nil {
		return
	}
	config.KeepAliveInterval, err = parseDuration("keep-alive interval", cfg.Relay.KeepAliveInterval)
	if err != nil {
		return
	}

	// Source settings
	config.SourceType = cfg.Source.Type
	config.SourceDevice = cfg.Source.Device
	config.SourceBaud = cfg.Source.Baud
	config.SourceAddress = cfg.Source.Address
	config.SourceReconnectDelay, err = parseDuration("source reconnect delay", cfg.Source.ReconnectDelay)
	if err != nil {
		return
	}

	// Output settings
	config.BeatsEndpoint = cfg.Mirror.BeatsAddress

	// Metric settings
	config.MetricQueryServerEnabled = cfg.Metrics.EnableQueryServer
	config.MetricQueryServerPort = cfg.Metrics.QueryServerPort
	config.MetricMaxAge, err = parseDuration("metric max age", cfg.Metrics.MaxAge)
	if err != nil {
		return
	}
	config.MetricCollectionInterval, err = parseDuration("metric collection interval", cfg.Metrics.Interval)
	if err != nil {
		return
	}
	return
}

// Empty means unset (zero)
func parseDuration(name string, raw string) (duration time.Duration, err error) {
	if raw == "" {
		return
	}
	duration, err = time.ParseDuration(raw)
	if err != nil {
		err = fmt.Errorf("failed to parse %s: %v", name, err)
		return
	}
	if duration < 0 {
		err = fmt.Errorf("%s cannot be negative", name)
	}
	return
}

// Sets defaults for any missing/invalid values
func (cfg *Config) setDefaults(ctx context.Context) {
	// Network
	if cfg.ListenIP == "" {
		cfg.ListenIP = global.DefaultListenAddr
	}
	if cfg.ListenPort == 0 {
		cfg.ListenPort = global.DefaultListenPort
	}
	if cfg.ConnectivityInterval == 0 {
		cfg.ConnectivityInterval = global.DefaultConnCheckPeriod
	}

	// Relay
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = global.DefaultMaxConnections - 1
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = global.DefaultQueueCapacity
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = global.DefaultReadBufferSize
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = global.DefaultPollTimeout
	}
	if cfg.IdleBackoff == 0 {
		cfg.IdleBackoff = global.DefaultIdleBackoff
	}
	if cfg.BindRetryDelay == 0 {
		cfg.BindRetryDelay = global.DefaultBindRetryDelay
	}
	if cfg.KeepAliveIdle == 0 {
		cfg.KeepAliveIdle = global.DefaultKeepAliveIdle
	}
	if cfg.KeepAliveInterval == 0 {
		cfg.KeepAliveInterval = global.DefaultKeepAliveIntvl
	}
	if cfg.KeepAliveCount <= 0 {
		cfg.KeepAliveCount = global.DefaultKeepAliveCount
	}

	// Worst case queued bytes must stay within a slice of free memory
	freeMemory := memory.FreeMemory()
	if freeMemory > 0 {
		budget := uint64(float64(freeMemory) * global.MaxQueueMemoryRatio)
		perChunk := uint64(cfg.MaxClients) * uint64(cfg.ReadBufferSize)
		if perChunk > 0 && perChunk*uint64(cfg.QueueCapacity) > budget {
			capacity := int(budget / perChunk)
			if capacity < 1 {
				capacity = 1
			}
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Queue capacity %d exceeds memory budget (%d bytes free), reduced to %d\n",
				cfg.QueueCapacity, freeMemory, capacity)
			cfg.QueueCapacity = capacity
		}
	}

	// Source
	if cfg.SourceReconnectDelay == 0 {
		cfg.SourceReconnectDelay = global.DefaultReconnectDelay
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = 1 * time.Hour
	}
	if cfg.MetricQueryServerPort == 0 {
		cfg.MetricQueryServerPort = global.HTTPListenPort
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = time.Duration(15 * time.Second)
	}
}
