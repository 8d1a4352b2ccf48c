// Package remote clones repositories named on the command line so they can
// be analyzed like local paths.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	path, ref := splitRef(path)

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "ssh://"), strings.HasPrefix(path, "git@"):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// splitRef splits a trailing @ref. The "@" of an scp-style URL
// (git@host:owner/repo) is not a ref separator.
func splitRef(path string) (string, string) {
	idx := strings.LastIndex(path, "@")
	if idx == -1 || strings.Contains(path[idx+1:], ":") {
		return path, ""
	}
	return path[:idx], path[idx+1:]
}

// isHostPath reports whether path looks like host.tld/owner/repo.
func isHostPath(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx <= 0 {
		return false
	}
	return strings.Contains(path[:slashIdx], ".") && strings.Count(path, "/") >= 2
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 || strings.Count(path, "/") != 1 {
		return false
	}
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone clones the repository into a temporary directory. A shallow clone
// fetches only the default branch tip and cannot serve a Ref.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	if shallow && s.Ref != "" {
		return fmt.Errorf("cannot analyze ref %q of a shallow clone", s.Ref)
	}

	dir, err := os.MkdirTemp("", "hoist-clone-*")
	if err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
		Tags:     git.AllTags,
	}
	if shallow {
		opts.Depth = 1
		opts.SingleBranch = true
		opts.Tags = git.NoTags
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("failed to clone %s: %w", s.URL, err)
	}
	s.CloneDir = dir
	return nil
}

// Revision returns a revision that resolves in the clone: Ref itself, or
// the matching remote-tracking branch. It is empty when Ref is empty.
func (s *Source) Revision() (string, error) {
	if s.Ref == "" {
		return "", nil
	}
	repo, err := git.PlainOpen(s.CloneDir)
	if err != nil {
		return "", err
	}
	for _, rev := range []string{s.Ref, "origin/" + s.Ref} {
		if _, err := repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
			return rev, nil
		}
	}
	return "", fmt.Errorf("ref %q not found in %s", s.Ref, s.URL)
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() error {
	if s.CloneDir == "" {
		return nil
	}
	err := os.RemoveAll(s.CloneDir)
	s.CloneDir = ""
	return err
}
