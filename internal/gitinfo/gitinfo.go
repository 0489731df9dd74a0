// Package gitinfo reads the commit the site content was exported from.
package gitinfo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Info describes the HEAD of the repository holding the content.
type Info struct {
	Commit string
	Branch string
	Dirty  bool
}

// Short returns the abbreviated commit hash, with a "-dirty" suffix when the
// worktree has uncommitted changes.
func (i Info) Short() string {
	c := i.Commit
	if len(c) > 12 {
		c = c[:12]
	}
	if i.Dirty {
		c += "-dirty"
	}
	return c
}

// ErrNotRepository is returned when dir is not inside a git repository.
var ErrNotRepository = errors.New("not a git repository")

// Head resolves HEAD for the repository containing dir. Parent directories
// are searched for the .git directory.
func Head(dir string) (Info, error) {
	repository, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Info{}, ErrNotRepository
	}
	if err != nil {
		return Info{}, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repository.Head()
	if err != nil {
		return Info{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	info := Info{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}

	wt, err := repository.Worktree()
	if err != nil {
		// Bare repositories have no worktree to be dirty.
		return info, nil
	}
	status, err := wt.Status()
	if err != nil {
		return info, fmt.Errorf("worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()
	return info, nil
}
