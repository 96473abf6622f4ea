package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"ser2sockd/internal/daemon"
	"ser2sockd/internal/global"
	"ser2sockd/internal/lifecycle"
)

// Runs the relay daemon in the foreground until a stop signal or a fatal worker error
func RunMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) {
	var configPath string
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath)

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args[0:])

	jsonCfg, err := daemon.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	daemonConfig, err := jsonCfg.NewDaemonConf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	relayDaemon := daemon.NewDaemon(daemonConfig, configPath)
	err = relayDaemon.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting relay daemon: %v\n", err)
		os.Exit(1)
	}

	go lifecycle.SignalHandler(ctx, relayDaemon)

	err = relayDaemon.Run()
	relayDaemon.Shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: relay daemon failed: %v\n", err)
		os.Exit(1)
	}
}
