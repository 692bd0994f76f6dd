package run

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

const (
	DefaultDisplayCallback    = "default"
	DefaultStructuredCallback = "json"
)

// Result is the outcome of the display run.
type Result struct {
	ExitStatus int
	RawLog     string
	Duration   time.Duration
}

// Succeeded reports whether the playbook exited cleanly.
func (r Result) Succeeded() bool {
	return r.ExitStatus == 0
}

// Runner executes a playbook twice: once for the operator and the log file,
// once in forced check mode for machine-readable output.
type Runner struct {
	Executor Executor
	Stdout   io.Writer
	// BaseEnv is the environment the env file and callback overrides are
	// layered on. Usually os.Environ().
	BaseEnv            []string
	Timeout            time.Duration
	DisplayCallback    string
	StructuredCallback string
}

func (r *Runner) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Display runs cmd with human-readable output, teeing it to Stdout and
// appending it to logFile. The returned error is non-nil only when the
// command could not be started.
func (r *Runner) Display(ctx context.Context, cmd Command, vars map[string]string, logFile string) (Result, error) {
	var captured bytes.Buffer
	sinks := []io.Writer{r.Stdout, &captured}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Warn("cannot open log file, output will not be persisted", "path", logFile, "error", err)
	} else {
		defer f.Close()
		sinks = append(sinks, f)
	}
	out := Tee(sinks...)

	env := MergeEnv(r.BaseEnv, vars, map[string]string{
		"ANSIBLE_STDOUT_CALLBACK": orDefault(r.DisplayCallback, DefaultDisplayCallback),
		"ANSIBLE_FORCE_COLOR":     "true",
	})

	runCtx, cancel := r.context(ctx)
	defer cancel()

	slog.Debug("starting display run", "command", cmd.String())
	start := time.Now()
	code, err := r.Executor.Run(runCtx, Invocation{Command: cmd, Env: env, Stdout: out, Stderr: out})
	if err != nil {
		if f != nil {
			discardEmptyLog(f)
		}
		return Result{}, err
	}
	return Result{
		ExitStatus: code,
		RawLog:     captured.String(),
		Duration:   time.Since(start),
	}, nil
}

// discardEmptyLog removes a log file nothing was written to.
func discardEmptyLog(f *os.File) {
	info, err := f.Stat()
	if err != nil || info.Size() > 0 {
		return
	}
	if err := os.Remove(f.Name()); err != nil {
		slog.Debug("cannot remove empty log file", "path", f.Name(), "error", err)
	}
}

// Structured runs cmd in check mode with JSON output redirected to jsonFile.
// It is best-effort: every failure is logged and swallowed.
func (r *Runner) Structured(ctx context.Context, cmd Command, vars map[string]string, jsonFile string) {
	f, err := os.Create(jsonFile)
	if err != nil {
		slog.Warn("cannot create structured output file", "path", jsonFile, "error", err)
		return
	}
	defer f.Close()

	env := MergeEnv(r.BaseEnv, vars, map[string]string{
		"ANSIBLE_STDOUT_CALLBACK": orDefault(r.StructuredCallback, DefaultStructuredCallback),
		"ANSIBLE_FORCE_COLOR":     "false",
		"ANSIBLE_NOCOLOR":         "true",
	})

	runCtx, cancel := r.context(ctx)
	defer cancel()

	checkCmd := cmd.WithCheck()
	slog.Debug("starting structured run", "command", checkCmd.String())
	code, err := r.Executor.Run(runCtx, Invocation{Command: checkCmd, Env: env, Stdout: f, Stderr: f})
	switch {
	case err != nil:
		slog.Warn("structured run failed to start", "error", err)
	case code != 0:
		slog.Debug("structured run exited non-zero", "status", code)
	}
}

// Capture runs cmd and returns its combined output. Used for best-effort
// helper calls such as the inventory listing.
func (r *Runner) Capture(ctx context.Context, cmd Command, vars map[string]string) (string, error) {
	var buf bytes.Buffer
	runCtx, cancel := r.context(ctx)
	defer cancel()
	env := MergeEnv(r.BaseEnv, vars, map[string]string{"ANSIBLE_NOCOLOR": "true"})
	code, err := r.Executor.Run(runCtx, Invocation{Command: cmd, Env: env, Stdout: &buf, Stderr: &buf})
	if err != nil {
		return "", err
	}
	if code != 0 {
		return buf.String(), fmt.Errorf("%s exited with status %d", cmd.Bin, code)
	}
	return buf.String(), nil
}
