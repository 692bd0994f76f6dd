package run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout names every artifact of one run.
const TimestampLayout = "2006-01-02_15-04-05"

const (
	LogDirName    = "logs"
	ReportDirName = "reports"
)

// Artifacts are the four output paths of a run, all sharing one timestamp.
type Artifacts struct {
	RunID       string    `json:"run_id"`
	Timestamp   string    `json:"timestamp"`
	StartedAt   time.Time `json:"started_at"`
	LogFile     string    `json:"log_file"`
	JSONFile    string    `json:"json_file"`
	ReportFile  string    `json:"report_file"`
	SummaryFile string    `json:"summary_file"`
}

// NewArtifacts derives the artifact paths under root for a run started at now.
func NewArtifacts(root string, now time.Time) Artifacts {
	ts := now.Format(TimestampLayout)
	logDir := filepath.Join(root, LogDirName)
	reportDir := filepath.Join(root, ReportDirName)
	return Artifacts{
		RunID:       uuid.NewString(),
		Timestamp:   ts,
		StartedAt:   now,
		LogFile:     filepath.Join(logDir, fmt.Sprintf("ansible_%s.log", ts)),
		JSONFile:    filepath.Join(logDir, fmt.Sprintf("ansible_%s.json", ts)),
		ReportFile:  filepath.Join(reportDir, fmt.Sprintf("report_%s.html", ts)),
		SummaryFile: filepath.Join(reportDir, fmt.Sprintf("summary_%s.txt", ts)),
	}
}

// Dirs returns the directories that hold the artifacts.
func (a Artifacts) Dirs() []string {
	return []string{filepath.Dir(a.LogFile), filepath.Dir(a.ReportFile)}
}

// Prepare creates the artifact directories.
func (a Artifacts) Prepare() error {
	for _, d := range a.Dirs() {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	return nil
}
