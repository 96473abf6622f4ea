package cli

import (
	"flag"
	"fmt"
	"os"
	"ser2sockd/internal/global"
	"ser2sockd/internal/install"
)

// Setup/installation options
func SetupMode(cliOpts *global.CommandSet, commandname string, args []string) {
	var templateConfPath string
	var unitFilePath string
	var unitConfigPath string

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.StringVar(&templateConfPath, "config-template", "", "Write a template config file to this path")
	commandFlags.StringVar(&unitFilePath, "systemd-unit", "", "Write a systemd service unit to this path")
	commandFlags.StringVar(&unitConfigPath, "c", global.DefaultConfigPath, "Config path the systemd unit starts the relay with")
	commandFlags.StringVar(&unitConfigPath, "config", global.DefaultConfigPath, "Config path the systemd unit starts the relay with")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	if len(args) < 1 {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args[0:])

	if templateConfPath == "" && unitFilePath == "" {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}

	var err error
	if templateConfPath != "" {
		err = install.CreateTemplateConfig(templateConfPath)
	}
	if err == nil && unitFilePath != "" {
		err = install.CreateUnitFile(unitFilePath, unitConfigPath)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
