package proctree

import (
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

func TestKillTree_AlreadyExited(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	// Must return without error or panic.
	KillTree(cmd.Process.Pid, true)
}

func TestDescendants_None(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	if got := Descendants(cmd.Process.Pid); len(got) != 0 {
		t.Errorf("Descendants = %v, want none", got)
	}
}

func TestKillTree_KillsParentAndChild(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 30 & sleep 30")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	pid := cmd.Process.Pid

	// Wait for the shell to have spawned its children.
	var kids []int32
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if kids = Descendants(pid); len(kids) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(kids) == 0 {
		t.Fatal("shell spawned no visible children")
	}

	k := New(zerolog.Nop())
	k.KillTree(pid, true)
	_ = cmd.Wait() // reap our direct child

	if !pidGone(t, int32(pid)) {
		t.Errorf("parent %d still in the process table", pid)
	}
	for _, kid := range kids {
		if !pidGone(t, kid) {
			t.Errorf("descendant %d still in the process table", kid)
		}
	}
}

func TestKillTree_ExcludeRoot(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	pid := cmd.Process.Pid
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	k := New(zerolog.Nop())
	k.Wait = time.Second
	k.KillTree(pid, false)

	if pidGone(t, int32(pid)) {
		t.Errorf("root %d was killed with includeRoot=false", pid)
	}
}

// pidGone reports whether pid has left the process table; zombies count
// as gone since only their parent can reap them.
func pidGone(t *testing.T, pid int32) bool {
	t.Helper()
	p, err := process.NewProcess(pid)
	if err != nil {
		return true
	}
	running, err := p.IsRunning()
	if err != nil || !running {
		return true
	}
	statuses, err := p.Status()
	if err != nil {
		return true
	}
	for _, s := range statuses {
		if s == process.Zombie {
			return true
		}
	}
	return false
}
