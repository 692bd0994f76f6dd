package run

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// TimeoutExitStatus is reported when a configured timeout kills the tool.
const TimeoutExitStatus = 124

// outputDrainDelay bounds how long Run waits for output pipes after the
// process group was killed. Forked workers may hold them open.
const outputDrainDelay = 3 * time.Second

// Invocation describes one spawn of an external command.
type Invocation struct {
	Command Command
	// Env is the complete child environment. Nil inherits this process's.
	Env    []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

//go:generate mockgen -source=executor.go -destination=runmock/executor.go -package=runmock Executor

// Executor spawns external commands. It returns the exit status of a command
// that ran, or an *ExecError when the command could not be started.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (int, error)
}

// ExecExecutor runs commands with os/exec.
type ExecExecutor struct{}

func (ExecExecutor) Run(ctx context.Context, inv Invocation) (int, error) {
	cmd := exec.CommandContext(ctx, inv.Command.Bin, inv.Command.Args...)
	cmd.Env = inv.Env
	cmd.Dir = inv.Dir
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	cmd.WaitDelay = outputDrainDelay
	killProcessGroup(cmd)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Warn("command timed out", "command", inv.Command.Bin)
		return TimeoutExitStatus, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal.
			code = 1
		}
		return code, nil
	}
	return -1, &ExecError{Bin: inv.Command.Bin, Err: err}
}

// teeWriter fans writes out to every sink. A sink that fails is dropped and
// the write still succeeds for the others.
type teeWriter struct {
	mu     sync.Mutex
	sinks  []io.Writer
	failed []bool
}

// Tee returns a writer that duplicates writes to all sinks, ignoring
// individual sink failures. Nil sinks are skipped.
func Tee(sinks ...io.Writer) io.Writer {
	t := &teeWriter{}
	for _, s := range sinks {
		if s != nil {
			t.sinks = append(t.sinks, s)
		}
	}
	t.failed = make([]bool, len(t.sinks))
	return t
}

func (t *teeWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.sinks {
		if t.failed[i] {
			continue
		}
		if _, err := s.Write(p); err != nil {
			t.failed[i] = true
			slog.Warn("output sink failed, dropping it", "sink", i, "error", err)
		}
	}
	return len(p), nil
}
