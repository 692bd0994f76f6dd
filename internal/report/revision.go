package report

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Revision identifies the playbook's git checkout.
type Revision struct {
	Commit string
	Branch string
	Dirty  bool
}

// PlaybookRevision returns the HEAD of the repository containing playbook.
func PlaybookRevision(playbook string) (*Revision, error) {
	abs, err := filepath.Abs(playbook)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}

	rev := &Revision{Commit: head.Hash().String()}
	if len(rev.Commit) > 12 {
		rev.Commit = rev.Commit[:12]
	}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}
	if wt, err := repo.Worktree(); err == nil {
		if st, err := wt.Status(); err == nil {
			rev.Dirty = !st.IsClean()
		}
	}
	return rev, nil
}
