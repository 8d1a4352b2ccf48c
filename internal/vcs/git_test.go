package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content, msg string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(filepath.ToSlash(name))
	require.NoError(t, err)
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestOpenTree(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "src/A.cs", "class A { }", "first")
	commitFile(t, repo, dir, "src/A.cs", "class A { void M() {} }", "second")
	commitFile(t, repo, dir, "B.java", "class B {}", "third")

	head, err := OpenTree(dir, "HEAD")
	require.NoError(t, err)
	files, err := head.Files()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/A.cs", "B.java"}, files)
	assert.Len(t, head.Revision(), 40)

	old, err := OpenTree(filepath.Join(dir, "src"), "HEAD~2")
	require.NoError(t, err)
	content, err := old.File("src/A.cs")
	require.NoError(t, err)
	assert.Equal(t, "class A { }", string(content))

	_, err = old.File("B.java")
	assert.Error(t, err)
}

func TestOpenTree_Errors(t *testing.T) {
	_, err := OpenTree(t.TempDir(), "HEAD")
	assert.True(t, errors.Is(err, ErrNotRepository))

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "A.cs", "class A {}", "first")

	_, err = OpenTree(dir, "no-such-branch")
	assert.Error(t, err)
}
