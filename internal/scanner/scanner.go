// Package scanner finds the source files an analysis should read.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/hoist/pkg/config"
	"github.com/panbanda/hoist/pkg/parser"
)

// PathError reports a scan root that could not be used.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Scanner finds source files in a directory.
type Scanner struct {
	config    *config.Config
	languages []parser.Language
	gitignore gitignore.Matcher
	gitRoot   string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{config: cfg}
	for _, name := range cfg.Analysis.Languages {
		if lang := parser.ParseLanguage(name); lang != parser.LangUnknown {
			s.languages = append(s.languages, lang)
		}
	}
	return s
}

// findGitRoot finds the root of the git repository by looking for .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore in the repository containing root.
func (s *Scanner) loadGitignore(absRoot string) {
	s.gitignore, s.gitRoot = nil, ""
	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.gitignore = gitignore.NewMatcher(patterns)
	s.gitRoot = gitRoot
}

func (s *Scanner) ignoredByGit(absPath string, isDir bool) bool {
	if s.gitignore == nil {
		return false
	}
	rel, err := filepath.Rel(s.gitRoot, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return s.gitignore.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

// Accepts reports whether path has a supported, enabled language.
func (s *Scanner) Accepts(path string) bool {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return false
	}
	return len(s.languages) == 0 || slices.Contains(s.languages, lang)
}

// ScanPaths scans each path, which may be a file or a directory, and
// returns the union of the results in lexical order without duplicates.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &PathError{Path: p, Err: err}
		}
		if !info.IsDir() {
			if s.Accepts(p) {
				files = append(files, p)
			}
			continue
		}
		found, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// ScanDir recursively scans a directory for source files.
// Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}

	s.loadGitignore(absRoot)

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		relPath, _ := filepath.Rel(root, path)
		absPath := filepath.Join(absRoot, relPath)

		if d.IsDir() {
			if s.config.ShouldExclude(relPath) || s.ignoredByGit(absPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.config.ShouldExclude(relPath) || s.ignoredByGit(absPath, false) {
			return nil
		}
		if s.Accepts(path) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, &PathError{Path: root, Err: walkErr}
	}
	return files, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FilterBySize drops files larger than maxSize bytes and returns how many
// were dropped. A maxSize of 0 disables the check.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}

// GroupByLanguage groups files by their detected language.
func GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		if lang := parser.DetectLanguage(f); lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}
