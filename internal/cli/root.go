package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanmeadows/playrun/internal/config"
	"github.com/alanmeadows/playrun/internal/logging"
	"github.com/alanmeadows/playrun/internal/pipeline"
	"github.com/alanmeadows/playrun/internal/run"
	"github.com/spf13/cobra"
)

// ExitError carries the process exit status to main. Err is nil when the
// failure has already been reported to the operator.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// rootOptions is the state shared by the command tree of one invocation.
type rootOptions struct {
	configPath string
	debug      bool
	flags      run.Flags

	cfg       *config.Config
	helpShown bool

	// Test seams. Nil means the real implementation.
	out      io.Writer
	executor run.Executor
	prompter run.Prompter
	open     func(path string) error
}

func newRootCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playrun [flags]",
		Short: "Run an Ansible playbook and report on the result",
		Long: `playrun runs ansible-playbook against an inventory for one environment,
captures its output and renders an HTML report and a plain-text summary.

Variables for the run are read from .env (production) or .env.<environment>
and passed to ansible only. CLEANUP_OLD_LOGS in that file also switches
pruning of old logs and reports.
Production runs that are not in check mode ask for an explicit "yes".`,
		Example: `  playrun -e staging --check
  playrun -e staging -t security -l web1 -vv
  playrun --no-diff`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return &run.ConfigError{Path: o.configPath, Message: "loading config", Err: err}
			}
			o.cfg = cfg
			logging.Setup(o.debug || cfg.Debug)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaybook(cmd, o)
		},
	}

	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Extra JSONC config file merged over user and repo config")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "Enable debug logging")
	o.flags.Bind(cmd.Flags(), run.Defaults{
		Environment: run.ProductionEnv,
		Playbook:    config.DefaultConfig().Defaults.Playbook,
		Inventory:   config.DefaultConfig().Defaults.Inventory,
	})

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(c.ErrOrStderr(), c.UsageString())
		return &run.UsageError{Message: err.Error()}
	})
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		o.helpShown = true
		defaultHelp(c, args)
	})

	cmd.AddCommand(newConfigCmd(o))
	cmd.AddCommand(newHistoryCmd(o))
	return cmd
}

// applyConfigDefaults fills flags the operator did not set from config defaults.
func applyConfigDefaults(cmd *cobra.Command, o *rootOptions) {
	d := o.cfg.Defaults
	fs := cmd.Flags()
	if !fs.Changed("env") && d.Environment != "" {
		o.flags.Environment = d.Environment
	}
	if !fs.Changed("playbook") && d.Playbook != "" {
		o.flags.Playbook = d.Playbook
	}
	if !fs.Changed("inventory") && d.Inventory != "" {
		o.flags.Inventory = d.Inventory
	}
}

func runPlaybook(cmd *cobra.Command, o *rootOptions) error {
	applyConfigDefaults(cmd, o)
	rc, err := o.flags.Resolve()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
		return err
	}

	executor := o.executor
	if executor == nil {
		executor = run.ExecExecutor{}
	}
	p := &pipeline.Pipeline{
		Config:   o.cfg,
		Executor: executor,
		Prompter: o.prompter,
		Stdout:   cmd.OutOrStdout(),
		Open:     o.open,
	}
	out, err := p.Run(cmd.Context(), rc)
	if err != nil {
		return err
	}
	if code := out.Result.ExitStatus; code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func execute(ctx context.Context, args []string, o *rootOptions) error {
	cmd := newRootCmd(o)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	if o.out != nil {
		cmd.SetOut(o.out)
		cmd.SetErr(o.out)
	}
	err := cmd.ExecuteContext(ctx)

	var exitErr *ExitError
	switch {
	case err == nil && o.helpShown:
		return &ExitError{Code: 1}
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return exitErr
	case errors.Is(err, run.ErrAborted):
		// "Aborted" was already printed by the confirmation gate.
		return &ExitError{Code: 1}
	default:
		return &ExitError{Code: 1, Err: err}
	}
}

// Execute runs the command line and returns an *ExitError for any non-zero
// outcome.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], &rootOptions{})
}
