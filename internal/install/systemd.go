package install

import (
	"fmt"
	"os"
	"ser2sockd/internal/global"
	"strings"
)

// Renders the systemd unit for the given binary and config paths
func renderUnitFile(executablePath string, configPath string) (unitFile []byte, err error) {
	template, err := installationFiles.ReadFile("static-files/ser2sockd.service")
	if err != nil {
		err = fmt.Errorf("unable to retrieve unit file from embedded filesystem: %v", err)
		return
	}

	// Inject variables into file
	newUnitFile := strings.Replace(string(template), "$executableFilePath", executablePath, 1)
	newUnitFile = strings.Replace(newUnitFile, "$configFilePath", configPath, 1)
	newUnitFile = strings.Replace(newUnitFile, "$envFilePath", global.DefaultEnvFile, 1)
	unitFile = []byte(newUnitFile)
	return
}

// Writes a systemd unit that runs this binary with configPath
func CreateUnitFile(unitFilePath string, configPath string) (err error) {
	if unitFilePath == "" {
		err = fmt.Errorf("specify unit file path via the --systemd-unit argument")
		return
	}
	if configPath == "" {
		configPath = global.DefaultConfigPath
	}

	executablePath, err := os.Executable()
	if err != nil {
		err = fmt.Errorf("failed to determine own executable path: %v", err)
		return
	}

	proceed, err := confirmOverwrite(unitFilePath, os.Stdin, os.Stdout, isTerminal())
	if err != nil || !proceed {
		return
	}

	unitFile, err := renderUnitFile(executablePath, configPath)
	if err != nil {
		return
	}

	err = os.WriteFile(unitFilePath, unitFile, 0644)
	if err != nil {
		err = fmt.Errorf("failed to write unit file: %v", err)
		return
	}

	fmt.Printf("Successfully wrote systemd unit to '%s'\n", unitFilePath)
	fmt.Printf("  Reload units with 'systemctl daemon-reload' and start with 'systemctl start %s'\n", global.ProgBaseName)
	return
}
