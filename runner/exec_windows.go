//go:build windows

package runner

import "os/exec"

// setProcGroup is a no-op on Windows: there are no POSIX process groups,
// so the context cancel path falls back to killing the process itself.
func setProcGroup(cmd *exec.Cmd) {}
