package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"ser2sockd/internal/acl"
	"ser2sockd/internal/global"
)

// Validates rules and reports the admission decision for each address
func ACLMode(cliOpts *global.CommandSet, commandname string, args []string) {
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args[0:])

	if commandFlags.NArg() < 1 {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}

	err := checkACL(os.Stdout, commandFlags.Arg(0), commandFlags.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func checkACL(out io.Writer, rules string, addresses []string) (err error) {
	if rules == "" {
		rules = acl.AllowAll
	}
	matcher, err := acl.Parse(rules)
	if err != nil {
		err = fmt.Errorf("invalid access list: %v", err)
		return
	}

	fmt.Fprintf(out, "Rules: %s\n", matcher.String())
	for _, address := range addresses {
		verdict := "rejected"
		if matcher.MatchesString(address) {
			verdict = "allowed"
		}
		fmt.Fprintf(out, "  %s: %s\n", address, verdict)
	}
	return
}
