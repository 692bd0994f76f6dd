package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFileName(t *testing.T) {
	assert.Equal(t, ".env", EnvFileName("", "production"))
	assert.Equal(t, ".env.staging", EnvFileName("", "staging"))
	assert.Equal(t, "vars.dev", EnvFileName("vars", "dev"))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "# comment\nANSIBLE_USER=deploy\nexport REGION=eu-west-1\nQUOTED=\"a b\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"), []byte(content), 0644))

	vars, path, err := LoadEnvFile(dir, "", "staging")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".env.staging"), path)
	assert.Equal(t, map[string]string{
		"ANSIBLE_USER": "deploy",
		"REGION":       "eu-west-1",
		"QUOTED":       "a b",
	}, vars)
}

func TestLoadEnvFileDoesNotTouchProcessEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PLAYRUN_TEST_ONLY=1\n"), 0644))

	_, _, err := LoadEnvFile(dir, "", "production")
	require.NoError(t, err)
	_, set := os.LookupEnv("PLAYRUN_TEST_ONLY")
	assert.False(t, set)
}

func TestLoadEnvFileMissing(t *testing.T) {
	dir := t.TempDir()

	_, path, err := LoadEnvFile(dir, "", "staging")
	require.Error(t, err)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "missing environment file", cerr.Message)
	assert.Equal(t, filepath.Join(dir, ".env.staging"), cerr.Path)
	assert.Equal(t, path, cerr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root", "broken"}
	got := MergeEnv(base,
		map[string]string{"HOME": "/home/deploy", "A": "1"},
		map[string]string{"A": "2"},
	)
	assert.Equal(t, []string{"A=2", "HOME=/home/deploy", "PATH=/bin"}, got)
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	playbook := filepath.Join(dir, "playbook.yml")
	inventory := filepath.Join(dir, "inventory.ini")
	require.NoError(t, os.WriteFile(playbook, []byte("- hosts: all\n"), 0644))

	err := Preflight(RunConfig{Playbook: playbook, Inventory: inventory})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, inventory, cerr.Path)
	assert.Equal(t, "file not found", cerr.Message)

	require.NoError(t, os.WriteFile(inventory, []byte("[all]\n"), 0644))
	assert.NoError(t, Preflight(RunConfig{Playbook: playbook, Inventory: inventory}))
}
