package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"syscall"
)

type DaemonLike interface {
	Reload(ctx context.Context) (err error)
	Shutdown()
}

// Handles all incoming signals from external sources.
// SIGHUP reloads the daemon in place; any other handled signal shuts it down and returns.
func SignalHandler(ctx context.Context, daemonManager DaemonLike) {
	sigChan := make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	handleSignals(ctx, daemonManager, sigChan)
}

func handleSignals(ctx context.Context, daemonManager DaemonLike, sigChan <-chan os.Signal) {
	ctx = logctx.AppendCtxTag(ctx, global.NSLifecycle)

	for {
		var sig os.Signal
		select {
		case <-ctx.Done():
			return
		case sig = <-sigChan:
		}
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)

		if sig != syscall.SIGHUP {
			err := NotifyStopping(ctx)
			if err != nil {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
			}
			daemonManager.Shutdown()
			return
		}

		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Beginning reload...\n")
		err := NotifyReload(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify reload failed: %v\n", err)
		}

		status := "Reload complete"
		err = daemonManager.Reload(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Reload error, previous configuration kept: %v\n", err)
			status = "Reload failed, previous configuration kept. Check daemon logs."
		}

		err = NotifyReady(ctx, status)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
		}
	}
}
