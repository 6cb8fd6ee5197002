// Package runner executes external commands with bounded timeouts,
// deadlock-safe output capture, and classified failures.
//
// Output is redirected to a scoped temporary file rather than a pipe:
// a child writing more than a kernel pipe buffer while the parent is
// blocked in a timed wait would otherwise deadlock both sides.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deixis/procrun/history"
)

// DefaultMaxOutput caps the diagnostic output attached to failures and
// suppress-mode results.
const DefaultMaxOutput = 8192

// Runner executes one external command per Run call. Concurrent Runs
// from independent goroutines are safe: each owns its temporary file and
// its child process, and the Runner itself is not mutated.
type Runner struct {
	// MaxOutput caps diagnostic output in bytes. Zero means
	// DefaultMaxOutput. Output explicitly requested by the caller on a
	// clean exit is never truncated.
	MaxOutput int

	// Timeout applies to calls that do not set their own. Zero means no
	// deadline.
	Timeout time.Duration

	// Retry governs transient spawn failures. The zero value uses the
	// package defaults; retries are always on.
	Retry RetryPolicy

	// OnRetry, if set, replaces the default retry log line. It is called
	// synchronously before each backoff sleep with the number of failed
	// attempts so far.
	OnRetry func(attempt int, cmd Command, dir string)

	// History, if set, receives a record of every produced Result.
	History history.Store

	// Log receives retry and bookkeeping warnings. Set it explicitly
	// (zerolog.Nop() to discard) when not constructing via New.
	Log zerolog.Logger
}

// Options control a single Run call.
type Options struct {
	Env            map[string]string // extends and overrides the process environment
	Dir            string            // working directory; empty means the caller's
	Timeout        time.Duration     // per-call deadline; zero means the Runner default
	ReturnOutput   bool              // return output even on a clean exit
	SuppressErrors bool              // convert exit/timeout failures into Results
}

// New returns a Runner with default limits logging through log.
func New(log zerolog.Logger) *Runner {
	return &Runner{Log: log.With().Str("component", "runner").Logger()}
}

// Run executes cmd synchronously and returns its Result.
//
// A nonzero exit or a timeout is returned as a *Failure carrying the
// captured (possibly truncated) output, unless Options.SuppressErrors is
// set, in which case it becomes a Result with the real exit code, or
// TimeoutExitCode for a timeout. Transient spawn failures are retried
// with exponential backoff per the Runner's RetryPolicy; permanent spawn
// failures, and exhausted retries, propagate as a *Failure regardless of
// SuppressErrors. A cancelled parent context propagates as the context
// error.
func (r *Runner) Run(ctx context.Context, cmd Command, opts Options) (*Result, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	attempt := 0
	op := func() (*Result, error) {
		attempt++
		res, err := r.runOnce(ctx, cmd, opts)
		if err != nil {
			var f *Failure
			if errors.As(err, &f) && f.Kind == KindSpawnTransient {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return res, nil
	}
	notify := func(error, time.Duration) {
		r.notifyRetry(attempt, cmd, opts.Dir)
	}

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(r.Retry.backOff()),
		backoff.WithMaxTries(uint(r.Retry.maxAttempts())),
		backoff.WithNotify(notify),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		return nil, err
	}

	r.record(res, start)
	return res, nil
}

// runOnce is a single execution attempt: one temporary file, one child
// process, both released on every exit path.
func (r *Runner) runOnce(ctx context.Context, cmd Command, opts Options) (*Result, error) {
	out, err := newCapture()
	if err != nil {
		return nil, &Failure{Kind: spawnKind(err), Command: cmd, Dir: opts.Dir, Err: err}
	}
	defer out.Close()

	runCtx := ctx
	if t := r.timeout(opts); t > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	proc := buildCmd(runCtx, cmd)
	proc.Dir = opts.Dir
	proc.Env = mergeEnv(opts.Env)
	proc.Stdout = out.file
	proc.Stderr = out.file
	setProcGroup(proc)

	runErr := proc.Run()
	if runErr == nil {
		res := &Result{RunID: uuid.New().String(), Command: cmd}
		if opts.ReturnOutput {
			if res.Output, err = out.ReadAll(); err != nil {
				return nil, fmt.Errorf("reading captured output: %w", err)
			}
		}
		return res, nil
	}

	// The per-call deadline expired while the caller's context is live.
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		partial, _ := out.ReadTruncated(r.maxOutput())
		if opts.SuppressErrors {
			return &Result{RunID: uuid.New().String(), Command: cmd, ExitCode: TimeoutExitCode, Output: partial}, nil
		}
		f := &Failure{Kind: KindTimeout, Command: cmd, Dir: opts.Dir, ExitCode: TimeoutExitCode, Err: runErr}
		return nil, Annotate(f, partial)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		captured, _ := out.ReadTruncated(r.maxOutput())
		if opts.SuppressErrors {
			return &Result{RunID: uuid.New().String(), Command: cmd, ExitCode: exitErr.ExitCode(), Output: captured}, nil
		}
		f := &Failure{Kind: KindNonZeroExit, Command: cmd, Dir: opts.Dir, ExitCode: exitErr.ExitCode(), Err: runErr}
		return nil, Annotate(f, captured)
	}

	return nil, &Failure{Kind: spawnKind(runErr), Command: cmd, Dir: opts.Dir, Err: runErr}
}

func buildCmd(ctx context.Context, cmd Command) *exec.Cmd {
	if cmd.Shell != "" {
		return exec.CommandContext(ctx, "/bin/sh", "-c", cmd.Shell)
	}
	return exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...) // #nosec G204
}

// mergeEnv extends the process environment with env. Later entries win,
// so an env key overrides an inherited one.
func mergeEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil // inherit unchanged
	}
	merged := os.Environ()
	for k, v := range env {
		merged = append(merged, k+"="+v)
	}
	return merged
}

func (r *Runner) timeout(opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	return r.Timeout
}

func (r *Runner) maxOutput() int {
	if r.MaxOutput > 0 {
		return r.MaxOutput
	}
	return DefaultMaxOutput
}

func (r *Runner) notifyRetry(attempt int, cmd Command, dir string) {
	if r.OnRetry != nil {
		r.OnRetry(attempt, cmd, dir)
		return
	}
	evt := r.Log.Warn().Int("failed_attempts", attempt).Str("command", cmd.String())
	if dir != "" {
		evt = evt.Str("dir", dir)
	}
	evt.Msg("transient spawn failure, retrying")
}

// record saves the result to the history store, best effort.
func (r *Runner) record(res *Result, start time.Time) {
	if r.History == nil {
		return
	}
	rec := &history.Record{
		ID:       res.RunID,
		Command:  res.Command.String(),
		ExitCode: res.ExitCode,
		TimedOut: res.ExitCode == TimeoutExitCode,
		Output:   res.Output,
		RanAt:    start,
		Duration: time.Since(start),
	}
	if err := r.History.Save(rec); err != nil {
		r.Log.Warn().Err(err).Str("run_id", res.RunID).Msg("failed to record run")
	}
}
