package runner

import (
	"fmt"
	"strings"
)

// TimeoutExitCode is the reserved sentinel exit code meaning "timed out".
// It is never produced by a real process exit: exit statuses reported by
// the OS fit in a much smaller range, but callers on platforms where a
// collision could theoretically occur should treat this value as reserved.
const TimeoutExitCode = -32768

// Command describes an external command. Exactly one of Argv and Shell
// must be set: an Argv vector is passed to the OS literally, a Shell
// string is interpreted by /bin/sh -c.
type Command struct {
	Argv  []string
	Shell string
}

// Argv builds a Command from a literal argument vector.
func Argv(args ...string) Command {
	return Command{Argv: args}
}

// Shell builds a Command interpreted by the shell.
func Shell(cmdline string) Command {
	return Command{Shell: cmdline}
}

// String renders the command line as given.
func (c Command) String() string {
	if c.Shell != "" {
		return c.Shell
	}
	return strings.Join(c.Argv, " ")
}

func (c Command) validate() error {
	if c.Shell != "" && len(c.Argv) > 0 {
		return fmt.Errorf("command sets both argv and shell form")
	}
	if c.Shell == "" && len(c.Argv) == 0 {
		return fmt.Errorf("empty command")
	}
	return nil
}

// Result holds the outcome of a command execution. It is created once
// per run and never mutated afterwards.
//
// Output is non-nil if and only if the caller requested output or the
// exit code is nonzero.
type Result struct {
	RunID    string  // unique identifier for this run
	Command  Command // the invoked command, as given
	ExitCode int     // process exit code, or TimeoutExitCode
	Output   []byte  // combined stdout/stderr
}
