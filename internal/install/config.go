// Writes template configuration and service files for new installations
package install

import (
	"bufio"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"ser2sockd/internal/daemon"
	"ser2sockd/internal/global"
	"strings"

	"golang.org/x/term"
)

// Read in installation static files at compile time
//
//go:embed static-files/*
var installationFiles embed.FS

// Asks before replacing an existing file. Without a terminal nothing is overwritten.
func confirmOverwrite(path string, stdin io.Reader, stdout io.Writer, interactive bool) (proceed bool, err error) {
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		proceed = true
		err = nil
		return
	}
	if err != nil {
		err = fmt.Errorf("failed checking existing file: %v", err)
		return
	}

	// No terminal - no overwrite
	if !interactive {
		fmt.Fprintf(stdout, "Existing file present at '%s', not overwriting\n", path)
		return
	}

	// File exists, prompt user for confirmation to overwrite
	fmt.Fprintf(stdout, "File already exists at '%s'. Are you SURE you want to overwrite it? (yes/no): ", path)
	reader := bufio.NewReader(stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if strings.ToLower(input) != "yes" {
		fmt.Fprintf(stdout, "Not overwriting '%s'\n", path)
		return
	}
	proceed = true
	return
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Writes a commented-by-example configuration file with every default filled in
func CreateTemplateConfig(filepath string) (err error) {
	if filepath == "" {
		err = fmt.Errorf("specify template file path via the --config-template argument")
		return
	}

	proceed, err := confirmOverwrite(filepath, os.Stdin, os.Stdout, isTerminal())
	if err != nil || !proceed {
		return
	}

	confBytes, err := templateConfig()
	if err != nil {
		return
	}

	err = os.WriteFile(filepath, confBytes, 0640)
	if err != nil {
		err = fmt.Errorf("failed to write config to file: %v", err)
		return
	}

	fmt.Printf("Successfully wrote template configuration file to '%s'\n", filepath)
	return
}

func templateConfig() (confBytes []byte, err error) {
	enabled := true
	requireConnectivity := true

	var newCfg daemon.JSONConfig
	newCfg.Enabled = &enabled

	newCfg.Network.Address = global.DefaultListenAddr
	newCfg.Network.Port = global.DefaultListenPort
	newCfg.Network.RequireConnectivity = &requireConnectivity
	newCfg.Network.ConnectivityInterval = global.DefaultConnCheckPeriod.String()

	newCfg.ACL = global.DefaultACL

	newCfg.Relay.MaxClients = global.DefaultMaxConnections - 1
	newCfg.Relay.QueueCapacity = global.DefaultQueueCapacity
	newCfg.Relay.ReadBufferSize = global.DefaultReadBufferSize
	newCfg.Relay.PollTimeout = global.DefaultPollTimeout.String()
	newCfg.Relay.IdleBackoff = global.DefaultIdleBackoff.String()
	newCfg.Relay.BindRetryDelay = global.DefaultBindRetryDelay.String()
	newCfg.Relay.KeepAliveIdle = global.DefaultKeepAliveIdle.String()
	newCfg.Relay.KeepAliveInterval = global.DefaultKeepAliveIntvl.String()
	newCfg.Relay.KeepAliveCount = global.DefaultKeepAliveCount

	newCfg.Source.Type = "serial"
	newCfg.Source.Device = global.DefaultSerialDevice
	newCfg.Source.Baud = global.DefaultSerialBaud
	newCfg.Source.ReconnectDelay = global.DefaultReconnectDelay.String()

	newCfg.Metrics.MaxAge = "1h"
	newCfg.Metrics.Interval = "15s"
	newCfg.Metrics.QueryServerPort = global.HTTPListenPort

	confBytes, err = json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		err = fmt.Errorf("error marshaling new config: %v", err)
		return
	}
	confBytes = append(confBytes, []byte("\n")...)
	return
}
