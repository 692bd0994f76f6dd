// Package notify tells the operator how a run ended: a terminal banner, the
// HTML report in a browser, a Teams webhook, and pruning of old artifacts.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alanmeadows/playrun/internal/config"
	"github.com/alanmeadows/playrun/internal/recap"
	"github.com/alanmeadows/playrun/internal/run"
)

// Outcome is a finished run as seen by the notifier.
type Outcome struct {
	Run       run.RunConfig
	Artifacts run.Artifacts
	Command   string
	Result    run.Result
	Summary   recap.Summary
}

// Notifier runs the completion steps. Every step is best-effort.
type Notifier struct {
	Config *config.Config
	Out    io.Writer
	// Open opens the HTML report. Defaults to OpenReport.
	Open func(path string) error
	Now  func() time.Time
}

// Finish prints the banner, then opens the report, sends the webhook and
// prunes old artifacts as configured. It never fails.
func (n *Notifier) Finish(ctx context.Context, o Outcome) {
	fmt.Fprintln(n.Out, Banner(o))

	if n.Config.Report.IsOpenBrowserEnabled() {
		open := n.Open
		if open == nil {
			open = OpenReport
		}
		if err := open(o.Artifacts.ReportFile); err != nil {
			slog.Debug("not opening report", "path", o.Artifacts.ReportFile, "reason", err)
		}
	}

	if err := Notify(ctx, &n.Config.Notifications, payloadFor(o)); err != nil {
		slog.Warn("sending notification failed", "error", err)
	}

	if n.Config.Cleanup.Enabled {
		now := time.Now()
		if n.Now != nil {
			now = n.Now()
		}
		removed := Cleanup(ctx, o.Artifacts.Dirs(), n.Config.Cleanup.Retention(), now)
		if len(removed) > 0 {
			slog.Info("removed old artifacts", "count", len(removed), "retention_days", n.Config.Cleanup.RetentionDays)
		}
	}
}

func payloadFor(o Outcome) NotificationPayload {
	p := NotificationPayload{
		Event:       EventRunSucceeded,
		Environment: o.Run.Environment,
		Playbook:    o.Run.Playbook,
		Status:      "success",
		ExitStatus:  o.Result.ExitStatus,
		Check:       o.Run.Check,
		Counters:    o.Summary.Counters,
		ReportFile:  o.Artifacts.ReportFile,
	}
	if !o.Result.Succeeded() {
		p.Event = EventRunFailed
		p.Status = "failed"
	}
	return p
}
