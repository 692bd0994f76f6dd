package run

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) (RunConfig, error) {
	t.Helper()
	fs := pflag.NewFlagSet("playrun", pflag.ContinueOnError)
	var f Flags
	f.Bind(fs, Defaults{Playbook: "playbook.yml", Inventory: "inventory.ini"})
	require.NoError(t, fs.Parse(args))
	return f.Resolve()
}

func TestResolveDefaults(t *testing.T) {
	rc, err := parseFlags(t)
	require.NoError(t, err)

	assert.Equal(t, RunConfig{
		Environment: "production",
		Playbook:    "playbook.yml",
		Inventory:   "inventory.ini",
		ShowDiff:    true,
	}, rc)
	assert.True(t, rc.NeedsConfirmation())
}

func TestResolveAllFlags(t *testing.T) {
	rc, err := parseFlags(t,
		"--env", "staging", "--playbook", "site.yml", "--inventory", "hosts",
		"--tags", "security", "--limit", "web*", "--check", "--no-diff", "-vv",
	)
	require.NoError(t, err)

	assert.Equal(t, RunConfig{
		Environment: "staging",
		Playbook:    "site.yml",
		Inventory:   "hosts",
		Tags:        "security",
		Limit:       "web*",
		Check:       true,
		Verbosity:   2,
		ShowDiff:    false,
	}, rc)
}

func TestResolveShortFlags(t *testing.T) {
	rc, err := parseFlags(t, "-e", "dev", "-p", "a.yml", "-i", "inv", "-t", "ssh", "-l", "db1", "-c")
	require.NoError(t, err)
	assert.Equal(t, "dev", rc.Environment)
	assert.Equal(t, "a.yml", rc.Playbook)
	assert.Equal(t, "inv", rc.Inventory)
	assert.Equal(t, "ssh", rc.Tags)
	assert.Equal(t, "db1", rc.Limit)
	assert.True(t, rc.Check)
}

func TestResolveLastValueWins(t *testing.T) {
	rc, err := parseFlags(t, "--env", "staging", "--env", "dev", "--tags", "a", "-t", "b")
	require.NoError(t, err)
	assert.Equal(t, "dev", rc.Environment)
	assert.Equal(t, "b", rc.Tags)
}

func TestVerbosityIsCumulative(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want int
	}{
		{nil, 0},
		{[]string{"-v"}, 1},
		{[]string{"-v", "-v", "-v"}, 3},
		{[]string{"-vvvv"}, 4},
		{[]string{"-vv", "--verbose"}, 3},
	} {
		rc, err := parseFlags(t, tc.args...)
		require.NoError(t, err)
		assert.Equal(t, tc.want, rc.Verbosity, "args %v", tc.args)
	}
}

func TestMissingFlagValue(t *testing.T) {
	fs := pflag.NewFlagSet("playrun", pflag.ContinueOnError)
	fs.SetOutput(&discard{})
	var f Flags
	f.Bind(fs, Defaults{})
	err := fs.Parse([]string{"--tags"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags")
}

func TestUnknownFlag(t *testing.T) {
	fs := pflag.NewFlagSet("playrun", pflag.ContinueOnError)
	fs.SetOutput(&discard{})
	var f Flags
	f.Bind(fs, Defaults{})
	err := fs.Parse([]string{"--bogus"})
	require.Error(t, err)
}

func TestResolveRejectsEmptyPlaybook(t *testing.T) {
	rc, err := parseFlags(t, "--playbook", "")
	require.Error(t, err)
	assert.Equal(t, RunConfig{}, rc)

	var uerr *UsageError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "--playbook", uerr.Arg)
}

func TestResolveRejectsPathLikeEnvironment(t *testing.T) {
	_, err := parseFlags(t, "--env", "../secrets")
	var uerr *UsageError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "--env", uerr.Arg)
}

func TestCheckModeSkipsConfirmation(t *testing.T) {
	rc, err := parseFlags(t, "--check")
	require.NoError(t, err)
	assert.True(t, rc.IsProduction())
	assert.False(t, rc.NeedsConfirmation())
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
