package cli

import "ser2sockd/internal/global"

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "Serial to Socket Relay (ser2sockd)",
		FullDescription: "  Shares one serial device (or upstream TCP stream) with several TCP clients",
		CommandName:     RootCLICommand,
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	// Relaying
	root.ChildCommands["run"] = &global.CommandSet{
		CommandName:     "run",
		Description:     "Run Relay",
		FullDescription: "Opens the upstream source and relays its bytes to every admitted TCP client",
		ChildCommands:   nil,
	}

	// Setup
	root.ChildCommands["configure"] = &global.CommandSet{
		CommandName:     "configure",
		Description:     "Setup Actions",
		FullDescription: "Generate template configuration and systemd unit files",
		ChildCommands:   nil,
	}

	// Admission rule checks
	root.ChildCommands["acl"] = &global.CommandSet{
		CommandName:     "acl",
		UsageOption:     "<rules> [address...]",
		Description:     "Check Access Rules",
		FullDescription: "Validates an access list and reports whether each given address would be admitted",
		ChildCommands:   nil,
	}

	// Version Info
	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}
