package notify

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alanmeadows/playrun/internal/config"
	"github.com/alanmeadows/playrun/internal/recap"
	"github.com/alanmeadows/playrun/internal/run"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestCleanupRemovesOnlyOldArtifacts(t *testing.T) {
	root := t.TempDir()
	logs := filepath.Join(root, "logs")
	reports := filepath.Join(root, "reports")
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-31 * 24 * time.Hour)
	recent := now.Add(-29 * 24 * time.Hour)

	touch(t, filepath.Join(logs, "ansible_old.log"), old)
	touch(t, filepath.Join(logs, "ansible_old.json"), old)
	touch(t, filepath.Join(logs, "ansible_new.log"), recent)
	touch(t, filepath.Join(logs, "keep.cfg"), old)
	touch(t, filepath.Join(reports, "report_old.html"), old)
	touch(t, filepath.Join(reports, "summary_old.txt"), old)
	touch(t, filepath.Join(reports, "report_new.html"), recent)
	require.NoError(t, os.MkdirAll(filepath.Join(reports, "archive.html"), 0755))

	removed := Cleanup(t.Context(), []string{logs, reports, filepath.Join(root, "missing")}, 30*24*time.Hour, now)

	assert.ElementsMatch(t, []string{
		filepath.Join(logs, "ansible_old.log"),
		filepath.Join(logs, "ansible_old.json"),
		filepath.Join(reports, "report_old.html"),
		filepath.Join(reports, "summary_old.txt"),
	}, removed)
	assert.FileExists(t, filepath.Join(logs, "ansible_new.log"))
	assert.FileExists(t, filepath.Join(logs, "keep.cfg"))
	assert.FileExists(t, filepath.Join(reports, "report_new.html"))
	assert.DirExists(t, filepath.Join(reports, "archive.html"))
}

func TestDisplayAvailable(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	assert.True(t, DisplayAvailable("darwin", env(nil)))
	assert.True(t, DisplayAvailable("windows", env(nil)))
	assert.False(t, DisplayAvailable("linux", env(nil)))
	assert.True(t, DisplayAvailable("linux", env(map[string]string{"DISPLAY": ":0"})))
	assert.True(t, DisplayAvailable("linux", env(map[string]string{"WAYLAND_DISPLAY": "wayland-0"})))
}

func sampleOutcome(root string, status int) Outcome {
	return Outcome{
		Run:       run.RunConfig{Environment: "staging", Playbook: "playbook.yml", Inventory: "inventory.ini", Check: true},
		Artifacts: run.NewArtifacts(root, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)),
		Result:    run.Result{ExitStatus: status},
		Summary:   recap.Summary{Counters: recap.Counters{Plays: 1, Tasks: 3, OK: 3, Changed: 1}},
	}
}

func TestBanner(t *testing.T) {
	ok := Banner(sampleOutcome("out", 0))
	assert.Contains(t, ok, "completed successfully")
	assert.Contains(t, ok, "[check mode]")
	assert.Contains(t, ok, "UNREACHABLE")
	assert.Contains(t, ok, filepath.Join("out", "reports", "report_2026-06-01_12-00-00.html"))

	failed := Banner(sampleOutcome("out", 4))
	assert.Contains(t, failed, "failed (exit 4)")
}

func TestFinish(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Cleanup.Enabled = true

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	stale := filepath.Join(root, "logs", "ansible_2026-01-01_00-00-00.log")
	touch(t, stale, now.Add(-60*24*time.Hour))

	var opened string
	var out bytes.Buffer
	n := &Notifier{
		Config: &cfg,
		Out:    &out,
		Open: func(path string) error {
			opened = path
			return errors.New("no browser")
		},
		Now: func() time.Time { return now },
	}
	o := sampleOutcome(root, 0)
	n.Finish(t.Context(), o)

	assert.Contains(t, out.String(), "completed successfully")
	assert.Equal(t, o.Artifacts.ReportFile, opened)
	assert.NoFileExists(t, stale)
}

func TestFinishRespectsOpenBrowserSetting(t *testing.T) {
	cfg := config.DefaultConfig()
	disabled := false
	cfg.Report.OpenBrowser = &disabled

	called := false
	n := &Notifier{
		Config: &cfg,
		Out:    &bytes.Buffer{},
		Open:   func(string) error { called = true; return nil },
	}
	n.Finish(t.Context(), sampleOutcome(t.TempDir(), 0))
	assert.False(t, called)
}

func TestOpenReportWithoutDisplay(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("display detection only depends on env vars on linux")
	}
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	called := false
	orig := openFile
	openFile = func(string) error { called = true; return nil }
	defer func() { openFile = orig }()

	err := OpenReport("report.html")
	assert.ErrorIs(t, err, errNoDisplay)
	assert.False(t, called)

	t.Setenv("DISPLAY", ":0")
	require.NoError(t, OpenReport("report.html"))
	assert.True(t, called)
}
