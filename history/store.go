// Package history provides structured persistence and retrieval of
// command run records, so callers can inspect what a command did after
// the fact without re-running it.
package history

import "time"

// Record is one completed command execution.
type Record struct {
	ID       string        `json:"id"`
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Output   []byte        `json:"output,omitempty"`
	RanAt    time.Time     `json:"ran_at"`
	Duration time.Duration `json:"duration"`
}

// Store persists and retrieves run records.
type Store interface {
	Save(rec *Record) error
	Load(id string) (*Record, error)
}
