//go:build unix

package runner

import (
	"errors"
	"os/exec"
	"syscall"
)

// setProcGroup places the child in its own process group and makes the
// context cancel path kill the whole group, so a timed-out command
// cannot leave grandchildren holding the output file open.
func setProcGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		// Negative PID signals the whole group. A group that already
		// exited is not an error.
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}
}
