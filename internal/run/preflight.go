package run

import (
	"errors"
	"io/fs"
	"os"
)

// Preflight confirms the playbook and inventory exist before anything runs.
func Preflight(rc RunConfig) error {
	for _, p := range []string{rc.Playbook, rc.Inventory} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return &ConfigError{Path: p, Message: "file not found", Err: err}
			}
			return &ConfigError{Path: p, Message: "cannot access file", Err: err}
		}
	}
	return nil
}
