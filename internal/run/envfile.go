package run

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFileBase is the environment file used for production.
const DefaultEnvFileBase = ".env"

// EnvFileName returns the environment file name for env: the bare base name
// for production, base + "." + env otherwise.
func EnvFileName(base, env string) string {
	if base == "" {
		base = DefaultEnvFileBase
	}
	if env == ProductionEnv {
		return base
	}
	return base + "." + env
}

// LoadEnvFile reads the KEY=value file for env from dir. The variables are
// returned for the child process and never exported into this process.
func LoadEnvFile(dir, base, env string) (map[string]string, string, error) {
	path := filepath.Join(dir, EnvFileName(base, env))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, path, &ConfigError{Path: path, Message: "missing environment file", Err: err}
		}
		return nil, path, &ConfigError{Path: path, Message: "cannot read environment file", Err: err}
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, path, &ConfigError{Path: path, Message: "invalid environment file", Err: err}
	}
	return vars, path, nil
}

// MergeEnv overlays each layer onto base (a KEY=value list as returned by
// os.Environ). Later layers win. Output is sorted for stable child envs.
func MergeEnv(base []string, layers ...map[string]string) []string {
	merged := make(map[string]string, len(base))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		merged[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out
}
