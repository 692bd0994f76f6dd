// Package pipeline wires the stages of a playbook run together: environment
// file, preflight, confirmation, execution, extraction, reporting and the
// completion steps.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alanmeadows/playrun/internal/config"
	"github.com/alanmeadows/playrun/internal/notify"
	"github.com/alanmeadows/playrun/internal/recap"
	"github.com/alanmeadows/playrun/internal/report"
	"github.com/alanmeadows/playrun/internal/run"
	"github.com/alanmeadows/playrun/internal/store"
)

// Pipeline holds the collaborators of a run. Zero-value fields fall back to
// the real process environment.
type Pipeline struct {
	Config   *config.Config
	Executor run.Executor
	Prompter run.Prompter
	Stdout   io.Writer
	// WorkDir is where the environment file is looked up. Defaults to ".".
	WorkDir string
	BaseEnv []string
	Now     func() time.Time
	// Open overrides how the HTML report is opened.
	Open func(path string) error
}

// Outcome is what a completed run produced.
type Outcome struct {
	Run       run.RunConfig
	Command   run.Command
	Artifacts run.Artifacts
	Result    run.Result
	Summary   recap.Summary
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) stdout() io.Writer {
	if p.Stdout != nil {
		return p.Stdout
	}
	return os.Stdout
}

// Run executes rc end to end. A returned error means the playbook never ran
// (configuration, abort or spawn failure); a failing playbook is reported
// through Outcome.Result.ExitStatus instead.
func (p *Pipeline) Run(ctx context.Context, rc run.RunConfig) (*Outcome, error) {
	cfg := p.Config
	workDir := p.WorkDir
	if workDir == "" {
		workDir = "."
	}

	vars, envPath, err := run.LoadEnvFile(workDir, cfg.Defaults.EnvFileBase, rc.Environment)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded environment file", "path", envPath, "vars", len(vars))

	if err := run.Preflight(rc); err != nil {
		return nil, err
	}

	cmd := run.BuildCommand(cfg.Ansible.PlaybookBin, rc)

	prompter := p.Prompter
	if prompter == nil {
		prompter = run.NewPrompter(os.Stdin, p.stdout())
	}
	if err := run.Confirm(rc, prompter, p.stdout()); err != nil {
		return nil, err
	}

	artifacts := run.NewArtifacts(cfg.Output.Dir, p.now())
	if err := artifacts.Prepare(); err != nil {
		return nil, err
	}

	baseEnv := p.BaseEnv
	if baseEnv == nil {
		baseEnv = os.Environ()
	}
	runner := &run.Runner{
		Executor:           p.Executor,
		Stdout:             p.stdout(),
		BaseEnv:            baseEnv,
		Timeout:            cfg.Ansible.ParseTimeout(),
		DisplayCallback:    cfg.Ansible.DisplayCallback,
		StructuredCallback: cfg.Ansible.StructuredCallback,
	}

	slog.Info("running playbook", "environment", rc.Environment, "command", cmd.String(), "run_id", artifacts.RunID)
	result, err := runner.Display(ctx, cmd, vars, artifacts.LogFile)
	if err != nil {
		return nil, err
	}
	runner.Structured(ctx, cmd, vars, artifacts.JSONFile)

	policy, err := recap.ParsePolicy(cfg.Report.CounterPolicy)
	if err != nil {
		slog.Warn("unknown counter policy, using last", "policy", cfg.Report.CounterPolicy)
		policy = recap.PolicyLast
	}
	summary := recap.Parse(result.RawLog, policy)

	out := &Outcome{Run: rc, Command: cmd, Artifacts: artifacts, Result: result, Summary: summary}

	if err := report.Write(p.reportData(ctx, runner, out, vars, policy)); err != nil {
		slog.Error("writing report failed", "error", err)
	}

	p.record(ctx, out)

	finishCfg := cfg.WithEnvFile(vars)
	n := &notify.Notifier{Config: &finishCfg, Out: p.stdout(), Open: p.Open, Now: p.Now}
	n.Finish(ctx, notify.Outcome{
		Run:       rc,
		Artifacts: artifacts,
		Command:   cmd.String(),
		Result:    result,
		Summary:   summary,
	})
	return out, nil
}

// reportData gathers the best-effort report sections around the run outcome.
func (p *Pipeline) reportData(ctx context.Context, runner *run.Runner, o *Outcome, vars map[string]string, policy recap.Policy) report.Data {
	d := report.Data{
		Run:         o.Run,
		Artifacts:   o.Artifacts,
		Command:     o.Command.String(),
		Result:      o.Result,
		Summary:     o.Summary,
		Policy:      policy,
		MaxLogLines: p.Config.Report.MaxLogLines,
		TemplateDir: p.Config.Report.TemplateDir,
		GeneratedAt: p.now(),
	}

	graph := run.InventoryGraphCommand(p.Config.Ansible.InventoryBin, o.Run.Inventory)
	if inv, err := runner.Capture(ctx, graph, vars); err != nil {
		slog.Warn("inventory listing unavailable", "error", err)
	} else {
		d.Inventory = inv
	}

	if outline, err := report.LoadOutline(o.Run.Playbook); err != nil {
		slog.Debug("playbook outline unavailable", "error", err)
	} else {
		d.Outline = outline
	}

	if rev, err := report.PlaybookRevision(o.Run.Playbook); err != nil {
		slog.Debug("playbook revision unavailable", "error", err)
	} else {
		d.Revision = rev
	}
	return d
}

// HistoryPath returns where run history is stored for cfg.
func HistoryPath(cfg *config.Config) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return filepath.Join(cfg.Output.Dir, store.HistoryFileName)
}

func (p *Pipeline) record(ctx context.Context, o *Outcome) {
	if !p.Config.History.IsEnabled() {
		return
	}
	err := func() error {
		h, err := store.OpenHistory(ctx, HistoryPath(p.Config))
		if err != nil {
			return err
		}
		defer h.Close()
		c := o.Summary.Counters
		return h.Record(ctx, store.Entry{
			RunID:       o.Artifacts.RunID,
			StartedAt:   o.Artifacts.StartedAt,
			Duration:    o.Result.Duration,
			Environment: o.Run.Environment,
			Playbook:    o.Run.Playbook,
			Inventory:   o.Run.Inventory,
			Check:       o.Run.Check,
			ExitStatus:  o.Result.ExitStatus,
			Plays:       c.Plays,
			Tasks:       c.Tasks,
			OK:          c.OK,
			Changed:     c.Changed,
			Failed:      c.Failed,
			Unreachable: c.Unreachable,
			ReportFile:  o.Artifacts.ReportFile,
		})
	}()
	if err != nil {
		slog.Warn("recording run history failed", "error", err)
	}
}
