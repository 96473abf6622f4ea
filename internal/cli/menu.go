package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"ser2sockd/internal/global"
	"sort"
	"strings"
	"text/tabwriter"
)

const (
	RootCLICommand  string = "root"
	helpMenuTrailer string = `
Report bugs to: dev@evsec.net
General help using GNU software: <https://www.gnu.org/gethelp/>
`
)

// Full standardized help menu for command (root when empty)
func PrintHelpMenu(fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	writeHelpMenu(os.Stdout, os.Args[0], fs, command, rootCmd)
}

func writeHelpMenu(out io.Writer, progName string, fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	cmd, path := findCommand(rootCmd, command)
	if cmd == nil {
		fmt.Fprintf(out, "Unknown command: %s\n", command)
		return
	}

	usage := append([]string{progName}, path...)
	switch len(cmd.ChildCommands) {
	case 0:
	case 1:
		for name := range cmd.ChildCommands {
			usage = append(usage, name)
		}
	default:
		usage = append(usage, "[subcommand]")
	}
	if cmd.UsageOption != "" {
		usage = append(usage, cmd.UsageOption)
	}
	fmt.Fprintf(out, "Usage: %s\n\n", strings.Join(usage, " "))

	if cmd == rootCmd {
		fmt.Fprintf(out, "%s\n%s\n\n", cmd.Description, cmd.FullDescription)
	} else if cmd.FullDescription != "" {
		fmt.Fprintf(out, "  Description:\n    %s\n\n", cmd.FullDescription)
	}

	if len(cmd.ChildCommands) > 0 {
		names := make([]string, 0, len(cmd.ChildCommands))
		for name := range cmd.ChildCommands {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(out, "  Subcommands:")
		table := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(table, "    %s\t- %s\n", name, cmd.ChildCommands[name].Description)
		}
		table.Flush()
		fmt.Fprintln(out)
	}

	writeFlagOptions(out, fs)

	if cmd == rootCmd {
		fmt.Fprint(out, helpMenuTrailer)
	}
}

// Locates command in the tree (root, its children, or grandchildren) with the
// names leading to it, root excluded
func findCommand(rootCmd *global.CommandSet, command string) (cmd *global.CommandSet, path []string) {
	if command == "" || command == RootCLICommand {
		cmd = rootCmd
		return
	}
	if child, ok := rootCmd.ChildCommands[command]; ok {
		cmd = child
		path = []string{child.CommandName}
		return
	}
	for _, top := range rootCmd.ChildCommands {
		if sub, ok := top.ChildCommands[command]; ok {
			cmd = sub
			path = []string{top.CommandName, sub.CommandName}
			return
		}
	}
	return
}

// One option line, short and long spellings sharing the same usage text are merged
type flagOption struct {
	short      []string
	long       []string
	usage      string
	defaultVal string
}

func (opt flagOption) names() string {
	names := make([]string, 0, len(opt.short)+len(opt.long))
	for _, name := range opt.short {
		names = append(names, "-"+name)
	}
	for _, name := range opt.long {
		names = append(names, "--"+name)
	}
	left := strings.Join(names, ", ")
	if len(opt.short) == 0 {
		// Line long-only options up with the long spelling of paired options
		left = "    " + left
	}
	return left
}

func writeFlagOptions(out io.Writer, fs *flag.FlagSet) {
	byUsage := make(map[string]*flagOption)
	var order []*flagOption

	fs.VisitAll(func(arg *flag.Flag) {
		opt, seen := byUsage[arg.Usage]
		if !seen {
			opt = &flagOption{usage: arg.Usage, defaultVal: arg.DefValue}
			byUsage[arg.Usage] = opt
			order = append(order, opt)
		}
		if len(arg.Name) == 1 {
			opt.short = append(opt.short, arg.Name)
		} else {
			opt.long = append(opt.long, arg.Name)
		}
	})

	sort.Slice(order, func(a, b int) bool {
		return strings.ToLower(strings.TrimSpace(order[a].names())) < strings.ToLower(strings.TrimSpace(order[b].names()))
	})

	fmt.Fprintln(out, "  Options:")
	table := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, opt := range order {
		desc := opt.usage
		// Skip printing any "empty" defaults
		if opt.defaultVal != "" && opt.defaultVal != "false" && opt.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", opt.defaultVal)
		}
		fmt.Fprintf(table, "  %s\t%s\n", opt.names(), desc)
	}
	table.Flush()
}
