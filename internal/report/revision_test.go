package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaybookRevision(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	playbook := filepath.Join(dir, "playbooks", "site.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(playbook), 0755))
	require.NoError(t, os.WriteFile(playbook, []byte("- hosts: all\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("playbooks/site.yml")
	require.NoError(t, err)
	hash, err := wt.Commit("add playbook", &git.CommitOptions{
		Author: &object.Signature{Name: "ops", Email: "ops@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	rev, err := PlaybookRevision(playbook)
	require.NoError(t, err)
	assert.Equal(t, hash.String()[:12], rev.Commit)
	assert.Equal(t, "master", rev.Branch)
	assert.False(t, rev.Dirty)

	require.NoError(t, os.WriteFile(playbook, []byte("- hosts: web\n"), 0644))
	rev, err = PlaybookRevision(playbook)
	require.NoError(t, err)
	assert.True(t, rev.Dirty)
}

func TestPlaybookRevisionOutsideRepository(t *testing.T) {
	playbook := filepath.Join(t.TempDir(), "site.yml")
	require.NoError(t, os.WriteFile(playbook, []byte("- hosts: all\n"), 0644))

	_, err := PlaybookRevision(playbook)
	assert.Error(t, err)
}
