package service

import "strings"

type Command int

const (
	CommandNone Command = iota
	CommandStart
	CommandHelp
	CommandSearch
	CommandCancel
	CommandReservations
	CommandUnknown
)

var commands = map[string]Command{
	"start":        CommandStart,
	"help":         CommandHelp,
	"search":       CommandSearch,
	"cancel":       CommandCancel,
	"reservations": CommandReservations,
}

// ParseCommand inspects the first token of text. Tokens not starting with a
// slash are plain input. A trailing @botname is ignored.
func ParseCommand(text string) Command {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return CommandNone
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	if cmd, ok := commands[strings.ToLower(name)]; ok {
		return cmd
	}
	return CommandUnknown
}
