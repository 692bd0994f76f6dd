// Package report renders the HTML report and the plain-text summary of a run.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/alanmeadows/playrun/internal/recap"
	"github.com/alanmeadows/playrun/internal/run"
	"github.com/alanmeadows/playrun/internal/store"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// Data is everything a report is rendered from.
type Data struct {
	Run       run.RunConfig
	Artifacts run.Artifacts
	Command   string
	Result    run.Result
	Summary   recap.Summary
	Policy    recap.Policy
	// Inventory is the host graph; empty when the listing failed.
	Inventory string
	Outline   []Play
	Revision  *Revision
	// MaxLogLines keeps only the tail of the log. Zero keeps everything.
	MaxLogLines int
	GeneratedAt time.Time
	// TemplateDir holds operator overrides of the built-in templates.
	TemplateDir string
}

type view struct {
	Data
	Status       string
	Succeeded    bool
	Log          string
	OmittedLines int
	LogSize      string
	Duration     string
	Generated    string
}

func newView(d Data) view {
	log, omitted := tail(ansi.Strip(d.Result.RawLog), d.MaxLogLines)
	v := view{
		Data:         d,
		Succeeded:    d.Result.Succeeded(),
		Log:          log,
		OmittedLines: omitted,
		LogSize:      humanize.Bytes(uint64(len(d.Result.RawLog))),
		Duration:     d.Result.Duration.Round(time.Second).String(),
		Generated:    d.GeneratedAt.Format(time.RFC1123),
	}
	if v.Succeeded {
		v.Status = "SUCCESS"
	} else {
		v.Status = "FAILED"
	}
	return v
}

// tail returns the last n lines of s and how many lines were dropped.
func tail(s string, n int) (string, int) {
	s = strings.TrimRight(s, "\n")
	if n <= 0 || s == "" {
		return s, 0
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s, 0
	}
	return strings.Join(lines[len(lines)-n:], "\n"), len(lines) - n
}

// Render produces the HTML report and the text summary in memory.
func Render(d Data) (html, summary []byte, err error) {
	t, err := LoadTemplates(d.TemplateDir)
	if err != nil {
		return nil, nil, err
	}
	v := newView(d)

	var hb bytes.Buffer
	if err := t.html.Execute(&hb, v); err != nil {
		return nil, nil, fmt.Errorf("rendering html report: %w", err)
	}
	var sb bytes.Buffer
	if err := t.summary.Execute(&sb, v); err != nil {
		return nil, nil, fmt.Errorf("rendering summary: %w", err)
	}
	return hb.Bytes(), sb.Bytes(), nil
}

// Write renders both documents and only then writes them, each atomically,
// to the report and summary paths of d.Artifacts.
func Write(d Data) error {
	html, summary, err := Render(d)
	if err != nil {
		return err
	}
	if err := store.WriteFile(d.Artifacts.ReportFile, html, 0644); err != nil {
		return fmt.Errorf("writing html report: %w", err)
	}
	if err := store.WriteFile(d.Artifacts.SummaryFile, summary, 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
