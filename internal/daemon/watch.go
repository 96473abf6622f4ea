package daemon

import (
	"context"
	"fmt"
	"ser2sockd/internal/global"
	"ser2sockd/internal/lifecycle"
	"ser2sockd/internal/logctx"
	"time"
)

const statusInterval = time.Second

// Polls the connectivity monitor and tells the relay when the host goes on or off the network
func (daemon *Daemon) watchConnectivity(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSNetwork)

	if closer, ok := daemon.monitor.(interface{ Close() }); ok {
		defer closer.Close()
	}

	ticker := time.NewTicker(daemon.cfg.ConnectivityInterval)
	defer ticker.Stop()

	for {
		up, err := daemon.monitor.Connected(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityDebug, global.WarnLog,
				"Connectivity check failed: %v\n", err)
		} else if up != daemon.Relay.Connected() {
			daemon.Relay.SetConnected(up)
			if up {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Network connectivity restored\n")
			} else {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Network connectivity lost, closing all connections\n")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sends READY once and a STATUS line to systemd whenever the relay summary changes
func (daemon *Daemon) reportStatus(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSLifecycle)

	lastStatus := daemon.statusLine()
	err := lifecycle.NotifyReady(ctx, lastStatus)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status := daemon.statusLine()
		if status != lastStatus {
			err = lifecycle.NotifyStatus(ctx, status)
			if err != nil {
				logctx.LogEvent(ctx, global.VerbosityDebug, global.WarnLog, "Systemd notify status failed: %v\n", err)
			}
			lastStatus = status
		}
	}
}

func (daemon *Daemon) statusLine() (status string) {
	source := "source down"
	if daemon.Source.Connected() {
		source = "source up"
	}
	status = fmt.Sprintf("%s, %d/%d clients, %s",
		daemon.Relay.State(), daemon.Relay.Metrics.ActiveClients.Load(), daemon.cfg.MaxClients, source)
	if !daemon.Relay.Enabled() {
		status = "disabled, " + source
	}
	return
}
