package global

// Node in the CLI command tree used for parsing and help output
type CommandSet struct {
	CommandName     string
	UsageOption     string // placeholder shown after the command in the usage line
	Description     string // one line summary listed under the parent
	FullDescription string // shown on the command's own help page
	ChildCommands   map[string]*CommandSet
}

// Context value keys
type CtxKey string
