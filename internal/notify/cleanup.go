package notify

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alanmeadows/playrun/internal/store"
)

var artifactExts = map[string]bool{".log": true, ".json": true, ".html": true, ".txt": true}

// Cleanup deletes artifact files in dirs last modified before now-retention
// and returns the removed paths. Subdirectories and unrelated files are left
// alone; errors are logged and skipped.
func Cleanup(ctx context.Context, dirs []string, retention time.Duration, now time.Time) []string {
	cutoff := now.Add(-retention)
	var removed []string

	for _, dir := range dirs {
		err := store.WithLock(ctx, filepath.Join(dir, ".cleanup"), store.DefaultLockTimeout, func() error {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if !e.Type().IsRegular() || !artifactExts[strings.ToLower(filepath.Ext(e.Name()))] {
					continue
				}
				info, err := e.Info()
				if err != nil || !info.ModTime().Before(cutoff) {
					continue
				}
				path := filepath.Join(dir, e.Name())
				if err := os.Remove(path); err != nil {
					slog.Warn("cannot remove old artifact", "path", path, "error", err)
					continue
				}
				slog.Debug("removed old artifact", "path", path)
				removed = append(removed, path)
			}
			return nil
		})
		if err != nil {
			slog.Warn("cleanup skipped", "dir", dir, "error", err)
		}
	}
	return removed
}
