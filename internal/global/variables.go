package global

var (
	CmdOpts  *CommandSet // Holds CLI command definition
	Hostname string      // local machine name
	PID      int         // self

	// Integer for printing increasingly detailed information as program progresses
	//
	//	0 - None: quiet (prints nothing but errors)
	//	1 - Standard: normal progress messages
	//	2 - Progress: connection accept/close messages
	//	3 - Data: shows sizes of relayed chunks
	//	4 - FullData: shows relayed chunk contents
	//	5 - Debug: shows poll/tick internals
	Verbosity int
)
