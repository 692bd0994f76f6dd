package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-git/go-git/v5"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
)

const (
	dirName  = "playrun"
	fileName = "playrun.jsonc"
)

// Load reads and merges configuration from user-level, repo-level and an
// optional explicit JSONC file.
// Resolution order: defaults → user config (~/.config/playrun/playrun.jsonc)
// → repo config (.playrun/playrun.jsonc) → override file → environment.
func Load(overridePath string) (*Config, error) {
	cfg := DefaultConfig()

	// Load user-level config
	if userPath := UserConfigPath(); userPath != "" {
		if userMap, err := loadJSONC(userPath); err == nil {
			if err := mergeIntoConfig(&cfg, userMap); err != nil {
				return nil, fmt.Errorf("merging user config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// Load repo-level config
	repoPath := RepoConfigPath()
	if repoMap, err := loadJSONC(repoPath); err == nil {
		if err := mergeIntoConfig(&cfg, repoMap); err != nil {
			return nil, fmt.Errorf("merging repo config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if overridePath != "" {
		m, err := loadJSONC(overridePath)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", overridePath, err)
		}
		if err := mergeIntoConfig(&cfg, m); err != nil {
			return nil, fmt.Errorf("merging config %s: %w", overridePath, err)
		}
	}

	// Environment variable overrides
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UserConfigPath returns the user-level config file path, or "" if the user
// config directory is unknown.
func UserConfigPath() string {
	userDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(userDir, dirName, fileName)
}

// RepoConfigPath returns the repo-level config path under RepoRoot.
func RepoConfigPath() string {
	return filepath.Join(RepoRoot(), "."+dirName, fileName)
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// mergeIntoConfig marshals the config to a map, deep-merges the source map over it,
// then unmarshals back to the Config struct.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	// Deep merge: src overrides dst
	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// RepoRoot returns the enclosing git work tree of the current directory, or
// the current directory itself when it is not inside a repository.
func RepoRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	repo, err := git.PlainOpenWithOptions(cwd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return cwd
	}
	wt, err := repo.Worktree()
	if err != nil {
		return cwd
	}
	return wt.Filesystem.Root()
}

// CleanupEnvVar turns artifact cleanup on or off. It is honoured in the
// process environment and in the run's environment file.
const CleanupEnvVar = "CLEANUP_OLD_LOGS"

func applyCleanupVar(cfg *Config, v string) {
	if v == "" {
		return
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("ignoring invalid "+CleanupEnvVar, "value", v)
		return
	}
	cfg.Cleanup.Enabled = enabled
}

// WithEnvFile returns a copy of c with the settings an environment file may
// carry applied on top. The file wins over the process environment.
func (c Config) WithEnvFile(vars map[string]string) Config {
	applyCleanupVar(&c, vars[CleanupEnvVar])
	return c
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	applyCleanupVar(cfg, os.Getenv(CleanupEnvVar))
	if url := os.Getenv("PLAYRUN_TEAMS_WEBHOOK_URL"); url != "" {
		cfg.Notifications.TeamsWebhookURL = url
	}
	if bin := os.Getenv("PLAYRUN_ANSIBLE_PLAYBOOK"); bin != "" {
		cfg.Ansible.PlaybookBin = bin
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s: failed %q constraint (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Ansible.Timeout != "" {
		if d, err := time.ParseDuration(c.Ansible.Timeout); err != nil || d < 0 {
			return fmt.Errorf("invalid config: ansible.timeout: %q is not a duration", c.Ansible.Timeout)
		}
	}
	return nil
}

// CheckDocument reports whether a JSON config document, merged over the
// defaults, yields a valid configuration.
func CheckDocument(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	cfg := DefaultConfig()
	if err := mergeIntoConfig(&cfg, m); err != nil {
		return err
	}
	return cfg.Validate()
}
