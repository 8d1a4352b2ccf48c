// Package source abstracts where analyzed file content comes from: the
// working tree or a git revision.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/panbanda/hoist/internal/vcs"
)

// ErrOutsideRepository is returned when a selected path is not inside the
// repository a revision was opened from.
var ErrOutsideRepository = errors.New("path is outside the repository")

// ContentSource provides file content to the extractor.
type ContentSource interface {
	Read(path string) ([]byte, error)
	// Describe names the source in reports, e.g. "working tree" or a commit.
	Describe() string
}

// Filesystem reads the working tree.
type Filesystem struct{}

// NewFilesystem returns a working tree source.
func NewFilesystem() Filesystem { return Filesystem{} }

func (Filesystem) Read(path string) ([]byte, error) { return os.ReadFile(path) }

func (Filesystem) Describe() string { return "working tree" }

// Revision reads a git tree. Paths are slash-separated and relative to the
// repository root. go-git object access is serialized, so a Revision may
// be shared by extraction workers.
type Revision struct {
	tree vcs.Tree
	mu   sync.Mutex
}

// NewRevision wraps an opened tree.
func NewRevision(tree vcs.Tree) *Revision {
	return &Revision{tree: tree}
}

func (r *Revision) Read(path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.File(path)
}

func (r *Revision) Describe() string {
	rev := r.tree.Revision()
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return "commit " + rev
}

// Select returns, sorted, the files of the revision that lie under one of
// paths and are accepted by keep. paths are filesystem paths inside the
// repository working directory; a nil keep accepts everything.
func (r *Revision) Select(paths []string, keep func(string) bool) ([]string, error) {
	prefixes, err := r.prefixes(paths)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	all, err := r.tree.Files()
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.Describe(), err)
	}

	var files []string
	for _, f := range all {
		if underAny(f, prefixes) && (keep == nil || keep(f)) {
			files = append(files, f)
		}
	}
	slices.Sort(files)
	return files, nil
}

// prefixes converts paths to slash paths relative to the repository root.
// An empty prefix selects the whole tree.
func (r *Revision) prefixes(paths []string) ([]string, error) {
	root := r.tree.Root()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s not in %s", ErrOutsideRepository, p, root)
		}
		if rel == "." {
			rel = ""
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

func underAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
