// Daemon wiring the relay to its upstream source, connectivity monitor, mirror and metric server
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"ser2sockd/internal/atomics"
	"ser2sockd/internal/externalio/beats"
	"ser2sockd/internal/externalio/server"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"ser2sockd/internal/metrics"
	"ser2sockd/internal/network"
	"ser2sockd/internal/relay"
	"ser2sockd/internal/upstream"
	"time"

	"golang.org/x/sync/errgroup"
)

// Create new relay daemon instance. configPath is re-read on reload.
func NewDaemon(cfg Config, configPath string) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:        cfg,
		configPath: configPath,
		ctx:        ctx,
		cancel:     cancel,
	}
	return
}

// Builds every component and starts their workers in the background
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSDaemon)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	if daemon.cfg.LogVerbosity >= 0 {
		logctx.SetLogLevel(daemon.ctx, daemon.cfg.LogVerbosity)
	}
	daemon.cfg.setDefaults(daemon.ctx)

	global.Hostname, err = os.Hostname()
	if err != nil {
		err = fmt.Errorf("failed to determine local hostname: %v", err)
		return
	}
	global.PID = os.Getpid()

	listenAddr, err := network.ParseListenAddr(daemon.cfg.ListenIP, daemon.cfg.ListenPort)
	if err != nil {
		err = fmt.Errorf("invalid listen address: %v", err)
		return
	}

	// Upstream source
	daemon.Source, err = upstream.New(nil, upstream.Config{
		Type:           daemon.cfg.SourceType,
		Device:         daemon.cfg.SourceDevice,
		Baud:           daemon.cfg.SourceBaud,
		Address:        daemon.cfg.SourceAddress,
		ReconnectDelay: daemon.cfg.SourceReconnectDelay,
		ReadBufferSize: daemon.cfg.ReadBufferSize,
	})
	if err != nil {
		err = fmt.Errorf("failed creating source: %v", err)
		return
	}

	// Relay core, client data goes to the source
	daemon.Relay, err = relay.New(relay.Config{
		Enabled:        daemon.cfg.Enabled,
		ListenAddr:     listenAddr,
		MaxConnections: daemon.cfg.MaxClients + 1,
		QueueCapacity:  daemon.cfg.QueueCapacity,
		ReadBufferSize: daemon.cfg.ReadBufferSize,
		PollTimeout:    daemon.cfg.PollTimeout,
		IdleBackoff:    daemon.cfg.IdleBackoff,
		BindRetryDelay: daemon.cfg.BindRetryDelay,
		Client: network.ClientOptions{
			KeepAliveIdle:     daemon.cfg.KeepAliveIdle,
			KeepAliveInterval: daemon.cfg.KeepAliveInterval,
			KeepAliveCount:    daemon.cfg.KeepAliveCount,
		},
		ACL: daemon.cfg.ACL,
	}, daemon.Source)
	if err != nil {
		err = fmt.Errorf("failed creating relay: %v", err)
		return
	}

	// Optional mirror
	daemon.Mirror = beats.NewMirror(nil, daemon.cfg.BeatsEndpoint, daemon.Source.Name(), beats.DefaultBuffer)

	// Connectivity
	if daemon.cfg.RequireConnectivity {
		daemon.monitor = network.NewAutoMonitor()
	} else {
		daemon.monitor = network.AlwaysUp{}
	}

	var workerCtx context.Context
	daemon.workers, workerCtx = errgroup.WithContext(daemon.ctx)
	daemon.workerCtx = workerCtx

	daemon.workers.Go(func() error {
		daemon.Relay.Run(workerCtx)
		return nil
	})
	daemon.workers.Go(func() error {
		return daemon.Source.Run(workerCtx, daemon.publish)
	})
	if daemon.Mirror != nil {
		daemon.workers.Go(func() error {
			daemon.Mirror.Run(workerCtx)
			return nil
		})
	}
	daemon.workers.Go(func() error {
		daemon.watchConnectivity(workerCtx)
		return nil
	})
	daemon.workers.Go(func() error {
		daemon.reportStatus(workerCtx)
		return nil
	})

	// Metrics Collector
	collectors := []Collector{daemon.Relay, daemon.Source}
	if daemon.Mirror != nil {
		collectors = append(collectors, daemon.Mirror)
	}
	if logger := logctx.GetLogger(daemon.ctx); logger != nil {
		collectors = append(collectors, logger)
	}
	daemon.metricsCollector = NewGatherer(daemon.cfg.MetricCollectionInterval, daemon.cfg.MetricMaxAge, collectors...)
	daemon.workers.Go(func() error {
		daemon.metricsCollector.Run(workerCtx)
		return nil
	})

	// Metric Server
	if daemon.cfg.MetricQueryServerEnabled {
		// Top level tag for metric server logs
		serverCtx := logctx.OverwriteCtxTag(daemon.ctx, []string{global.NSMetric, global.NSMetricSrv})

		registry := daemon.metricsCollector.Registry
		daemon.MetricServer, err = server.SetupListener(serverCtx,
			daemon.cfg.MetricQueryServerPort,
			registry.Search,
			registry.Discover,
			registry.Aggregate,
			metrics.PromHandler(registry, global.ProgBaseName))
		if err != nil {
			err = fmt.Errorf("failed setting up metric server: %v", err)
			daemon.Shutdown()
			return
		}
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			server.Start(serverCtx, daemon.MetricServer)
		}()
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Startup complete: relaying %s to port %d (%d clients max)\n",
		daemon.Source.Name(), daemon.cfg.ListenPort, daemon.cfg.MaxClients)
	return
}

// Source chunks go to the mirror and every relay client
func (daemon *Daemon) publish(chunk []byte) bool {
	daemon.Mirror.Send(chunk)
	return daemon.Relay.Publish(chunk)
}

// Blocking daemon waiter. Returns the first worker failure, if any.
func (daemon *Daemon) Run() (err error) {
	if daemon.workerCtx == nil {
		<-daemon.ctx.Done()
		return
	}
	<-daemon.workerCtx.Done()
	err = daemon.workers.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return
}

// Re-reads the config file and applies the runtime adjustable settings (acl, enabled, log verbosity).
// Any invalid setting leaves the running configuration unchanged.
func (daemon *Daemon) Reload(ctx context.Context) (err error) {
	jsonCfg, err := LoadConfig(daemon.configPath)
	if err != nil {
		return
	}
	newCfg, err := jsonCfg.NewDaemonConf()
	if err != nil {
		return
	}

	// Rules are swapped first so a rejected acl leaves every other setting untouched
	err = daemon.Relay.ReplaceACL(newCfg.ACL)
	if err != nil {
		return
	}
	daemon.cfg.ACL = newCfg.ACL

	if newCfg.LogVerbosity >= 0 {
		logctx.SetLogLevel(daemon.ctx, newCfg.LogVerbosity)
	}

	daemon.Relay.SetEnabled(newCfg.Enabled)
	daemon.cfg.Enabled = newCfg.Enabled

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Reloaded configuration: enabled=%v acl='%s'\n", newCfg.Enabled, daemon.Relay.ACL())
	return
}

// Gracefully shutdown worker threads (errors are printed to program log buffer)
func (daemon *Daemon) Shutdown() {
	daemon.shutdownOnce.Do(daemon.shutdown)
}

func (daemon *Daemon) shutdown() {
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	// Stop metric server
	if daemon.MetricServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), global.ShutdownTimeout)
		err := daemon.MetricServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"metric HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	// Relay drains every client when its context ends
	daemon.cancel()

	if daemon.Relay != nil {
		success, last := atomics.WaitUntilZero(&daemon.Relay.Metrics.ActiveClients, global.ShutdownTimeout)
		if !success {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"relay did not drain in time: %d clients still connected\n", last)
		}
	}

	// Wait for all workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		if daemon.workers != nil {
			daemon.workers.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
			"Daemon shutdown completed successfully\n")
	case <-time.After(global.ShutdownTimeout):
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
			"Timeout: daemon did not shutdown within %v seconds\n",
			global.ShutdownTimeout.Seconds())
	}
}
