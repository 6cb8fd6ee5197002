package runner

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind classifies a command failure. Callers discriminate on it with
// errors.As and a Kind check; annotation never changes it.
type Kind string

const (
	// KindNonZeroExit is a process that completed with a nonzero code.
	KindNonZeroExit Kind = "nonzero_exit"
	// KindTimeout is a process that did not complete before its deadline.
	KindTimeout Kind = "timeout"
	// KindSpawnTransient is an OS-level start failure expected to resolve
	// on retry, e.g. temporary resource exhaustion.
	KindSpawnTransient Kind = "spawn_transient"
	// KindSpawnPermanent is an OS-level start failure that will not
	// resolve on retry, e.g. a missing executable.
	KindSpawnPermanent Kind = "spawn_permanent"
)

// Failure is a classified command failure. It is constructed at the
// point of failure and propagated unchanged; retries happen before one
// is built.
type Failure struct {
	Kind     Kind
	Command  Command
	Dir      string // working directory, if one was set
	ExitCode int    // set for KindNonZeroExit and KindTimeout
	Output   []byte // captured output, attached by Annotate
	Err      error  // underlying OS or exec error
}

// Annotate attaches captured output to f for diagnostics. The failure's
// Kind is preserved so callers can still discriminate on it.
func Annotate(f *Failure, output []byte) *Failure {
	f.Output = output
	return f
}

func (f *Failure) Error() string {
	return f.describe() + renderOutput(f.Output)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) describe() string {
	var msg string
	switch f.Kind {
	case KindNonZeroExit:
		msg = fmt.Sprintf("command %q exited with code %d", f.Command, f.ExitCode)
	case KindTimeout:
		msg = fmt.Sprintf("command %q timed out", f.Command)
	default:
		msg = fmt.Sprintf("command %q failed to start: %v", f.Command, f.Err)
	}
	if f.Dir != "" {
		msg += fmt.Sprintf(" in working directory %q", f.Dir)
	}
	return msg
}

// renderOutput appends a best-effort UTF-8 rendering of the captured
// output, line-prefixed for readability. It is a pure function of the
// bytes and never fails, even on binary output.
func renderOutput(output []byte) string {
	if len(output) == 0 {
		return "\nNo output was generated."
	}
	if !utf8.Valid(output) {
		return "\nFailed to parse output."
	}
	var b strings.Builder
	b.WriteString("\nCaptured output:")
	for _, line := range strings.Split(string(output), "\n") {
		b.WriteString("\n    ")
		b.WriteString(line)
	}
	return b.String()
}
