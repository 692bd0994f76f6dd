package config

import (
	"time"
)

// Config is the top-level playrun configuration.
type Config struct {
	Debug         bool                `json:"debug"`
	Ansible       AnsibleConfig       `json:"ansible"`
	Defaults      DefaultsConfig      `json:"defaults"`
	Output        OutputConfig        `json:"output"`
	Report        ReportConfig        `json:"report"`
	Cleanup       CleanupConfig       `json:"cleanup"`
	History       HistoryConfig       `json:"history"`
	Notifications NotificationsConfig `json:"notifications"`
}

// AnsibleConfig controls how the external tool is invoked.
type AnsibleConfig struct {
	PlaybookBin        string `json:"playbook_bin" validate:"required"`
	InventoryBin       string `json:"inventory_bin" validate:"required"`
	DisplayCallback    string `json:"display_callback"`
	StructuredCallback string `json:"structured_callback"`
	// Timeout bounds each invocation. Empty means no limit.
	Timeout string `json:"timeout"`
}

// ParseTimeout returns the invocation timeout, or zero for none.
func (a AnsibleConfig) ParseTimeout() time.Duration {
	if a.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DefaultsConfig seeds the run flags.
type DefaultsConfig struct {
	Environment string `json:"environment" validate:"required"`
	Playbook    string `json:"playbook" validate:"required"`
	Inventory   string `json:"inventory" validate:"required"`
	EnvFileBase string `json:"env_file_base" validate:"required"`
}

// OutputConfig places the run artifacts.
type OutputConfig struct {
	Dir string `json:"dir" validate:"required"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	CounterPolicy string `json:"counter_policy" validate:"oneof=last sum"`
	MaxLogLines   int    `json:"max_log_lines" validate:"min=0"`
	OpenBrowser   *bool  `json:"open_browser"`
	// TemplateDir overrides report.html.tmpl and summary.txt.tmpl. Empty
	// means ~/.config/playrun/templates.
	TemplateDir   string `json:"template_dir"`
}

// IsOpenBrowserEnabled returns whether the HTML report should be opened.
// Defaults to true when not explicitly set.
func (r ReportConfig) IsOpenBrowserEnabled() bool {
	if r.OpenBrowser == nil {
		return true
	}
	return *r.OpenBrowser
}

// CleanupConfig controls pruning of old artifacts.
type CleanupConfig struct {
	Enabled       bool `json:"enabled"`
	RetentionDays int  `json:"retention_days" validate:"min=1"`
}

// Retention returns the retention window as a duration.
func (c CleanupConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled *bool `json:"enabled"`
	// Path defaults to playrun.db inside the output directory.
	Path string `json:"path"`
}

// IsEnabled returns whether runs are recorded. Defaults to true.
func (h HistoryConfig) IsEnabled() bool {
	if h.Enabled == nil {
		return true
	}
	return *h.Enabled
}

// NotificationsConfig holds notification settings.
type NotificationsConfig struct {
	TeamsWebhookURL string   `json:"teams_webhook_url" validate:"omitempty,url"`
	Events          []string `json:"events" validate:"dive,oneof=run_succeeded run_failed"`
}

// boolPtr returns a pointer to the given bool value.
func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Ansible: AnsibleConfig{
			PlaybookBin:        "ansible-playbook",
			InventoryBin:       "ansible-inventory",
			DisplayCallback:    "default",
			StructuredCallback: "json",
		},
		Defaults: DefaultsConfig{
			Environment: "production",
			Playbook:    "playbook.yml",
			Inventory:   "inventory.ini",
			EnvFileBase: ".env",
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Report: ReportConfig{
			CounterPolicy: "last",
			MaxLogLines:   1000,
			OpenBrowser:   boolPtr(true),
		},
		Cleanup: CleanupConfig{
			Enabled:       false,
			RetentionDays: 30,
		},
		History: HistoryConfig{
			Enabled: boolPtr(true),
		},
	}
}
