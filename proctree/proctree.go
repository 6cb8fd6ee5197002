// Package proctree terminates a process and every process descended
// from it. It exists for aborting runaway or hung build subprocesses,
// so there is no graceful-termination phase: descendants get an
// immediate hard kill.
package proctree

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// DefaultWait bounds each of the two wait phases in KillTree.
const DefaultWait = 5 * time.Second

const pollInterval = 50 * time.Millisecond

// Killer terminates process trees. The zero Wait means DefaultWait.
type Killer struct {
	Wait time.Duration
	Log  zerolog.Logger
}

// New returns a Killer with default bounds logging through log.
func New(log zerolog.Logger) *Killer {
	return &Killer{Log: log.With().Str("component", "proctree").Logger()}
}

// KillTree kills every current descendant of pid and, if includeRoot,
// pid itself, waiting up to the Killer's bound for each phase. It is
// best effort and never fails: an already-exited pid is treated as
// already handled, and processes still alive after the wait bound are
// logged and left behind for the caller to re-invoke on.
//
// Descendants are enumerated once per call; children spawned between
// enumeration and signalling are inherently missed.
func (k *Killer) KillTree(pid int, includeRoot bool) {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return // already gone
	}

	children := descendants(int32(pid))
	for _, c := range children {
		_ = c.Kill()
	}
	_, alive := k.waitProcs(children)
	if len(alive) > 0 {
		pids := make([]int, 0, len(alive))
		for _, p := range alive {
			pids = append(pids, int(p.Pid))
		}
		k.Log.Warn().Ints("pids", pids).Msg("descendants still alive after kill wait")
	}

	if includeRoot {
		_ = root.Kill()
		if _, alive := k.waitProcs([]*process.Process{root}); len(alive) > 0 {
			k.Log.Warn().Int("pid", pid).Msg("process still alive after kill wait")
		}
	}
}

// KillTree kills the tree rooted at pid with default bounds and no
// logging.
func KillTree(pid int, includeRoot bool) {
	k := Killer{Log: zerolog.Nop()}
	k.KillTree(pid, includeRoot)
}

// Descendants returns the pids of every process transitively spawned by
// pid, at the moment of the call.
func Descendants(pid int) []int32 {
	procs := descendants(int32(pid))
	pids := make([]int32, 0, len(procs))
	for _, p := range procs {
		pids = append(pids, p.Pid)
	}
	return pids
}

// descendants walks the live process table breadth-first from pid.
func descendants(pid int32) []*process.Process {
	procs, err := process.Processes()
	if err != nil {
		return nil
	}
	byParent := make(map[int32][]*process.Process, len(procs))
	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil {
			continue // vanished mid-walk
		}
		byParent[ppid] = append(byParent[ppid], p)
	}

	var out []*process.Process
	queue := []int32{pid}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, c := range byParent[next] {
			out = append(out, c)
			queue = append(queue, c.Pid)
		}
	}
	return out
}

// waitProcs polls until every process has exited or the bound elapses,
// partitioning into exited and still-alive.
func (k *Killer) waitProcs(procs []*process.Process) (gone, alive []*process.Process) {
	wait := k.Wait
	if wait <= 0 {
		wait = DefaultWait
	}
	deadline := time.Now().Add(wait)

	alive = procs
	for {
		var still []*process.Process
		for _, p := range alive {
			if exited(p) {
				gone = append(gone, p)
			} else {
				still = append(still, p)
			}
		}
		alive = still
		if len(alive) == 0 || time.Now().After(deadline) {
			return gone, alive
		}
		time.Sleep(pollInterval)
	}
}

// exited reports whether p is gone from the process table. Zombies
// count as exited: a killed child of another process stays visible
// until its parent reaps it, which is outside our control.
func exited(p *process.Process) bool {
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
