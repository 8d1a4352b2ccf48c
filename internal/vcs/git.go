// Package vcs reads source snapshots out of git repositories.
package vcs

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no repository encloses the given path.
var ErrNotRepository = errors.New("not a git repository")

// Tree is a read-only snapshot of a repository at one revision.
type Tree interface {
	// Files lists every file in the snapshot as a slash-separated path
	// relative to the repository root.
	Files() ([]string, error)
	// File returns the content of the file at path.
	File(path string) ([]byte, error)
	// Revision returns the resolved commit hash.
	Revision() string
	// Root returns the repository working directory.
	Root() string
}

type gitTree struct {
	tree *object.Tree
	hash plumbing.Hash
	root string
}

// OpenTree resolves ref (a branch, tag, commit or expression such as
// HEAD~2) in the repository enclosing path.
func OpenTree(path, ref string) (Tree, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", ref, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for %s: %w", hash, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	root, _ = filepath.Abs(root)

	return &gitTree{tree: tree, hash: *hash, root: root}, nil
}

func (t *gitTree) Files() ([]string, error) {
	var files []string
	err := t.tree.Files().ForEach(func(f *object.File) error {
		if f.Mode.IsFile() {
			files = append(files, f.Name)
		}
		return nil
	})
	return files, err
}

func (t *gitTree) File(path string) ([]byte, error) {
	f, err := t.tree.File(filepath.ToSlash(path))
	if err != nil {
		return nil, fmt.Errorf("%s@%s: %w", path, t.hash.String()[:7], err)
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (t *gitTree) Revision() string {
	return t.hash.String()
}

func (t *gitTree) Root() string {
	return t.root
}
