// Package testutil provides source-tree fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// greeter is a C# class whose only method is identical across instances.
const greeter = `public class NAME
{
    public string Greet(string name)
    {
        return "Hi " + name;
    }
}
`

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree writes a file for each relative path in files under a new
// temporary directory and returns the directory.
func CreateFileTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
	return root
}

// Greeter returns the source of a C# class called name with a Greet method.
func Greeter(name string) string {
	return strings.ReplaceAll(greeter, "NAME", name)
}

// GreeterTree writes one Greeter class per name, each to <name>.cs, and
// returns the directory.
func GreeterTree(t *testing.T, names ...string) string {
	t.Helper()
	files := make(map[string]string, len(names))
	for _, name := range names {
		files[name+".cs"] = Greeter(name)
	}
	return CreateFileTree(t, files)
}
