package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/panbanda/hoist/pkg/models"
)

func fixtureClasses() []*models.ClassUnit {
	return []*models.ClassUnit{
		(&models.ClassUnit{Name: "A", Path: "src/A.cs", Language: "csharp", Methods: []*models.MethodSignature{
			{Name: "Greet", ReturnType: "string", Parameters: []models.Parameter{{Type: "string", Name: "name"}}, Body: "{ return name; }"},
		}}).Link(),
	}
}

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	c, err := New(dir, 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("New() should create cache directory: %v", err)
	}

	c, err = New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestPutGet(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatal(err)
	}
	content := []byte("class A { string Greet(string name) { return name; } }")

	if _, ok := c.Get("src/A.cs", content); ok {
		t.Fatal("expected miss before Put")
	}
	if err := c.Put("src/A.cs", content, fixtureClasses()); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	classes, ok := c.Get("src/A.cs", content)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(classes) != 1 || classes[0].Name != "A" || len(classes[0].Methods) != 1 {
		t.Fatalf("unexpected cached classes: %+v", classes)
	}
	m := classes[0].Methods[0]
	if m.Class != classes[0] {
		t.Error("cached methods should be linked to their class")
	}
	if m.Parameters[0].Name != "name" || m.Body != "{ return name; }" {
		t.Errorf("method did not round-trip: %+v", m)
	}
}

func TestGet_ContentChanged(t *testing.T) {
	c, _ := New(t.TempDir(), 24, true)
	if err := c.Put("A.cs", []byte("v1"), fixtureClasses()); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("A.cs", []byte("v2")); ok {
		t.Error("expected miss when content changed")
	}
	if _, ok := c.Get("B.cs", []byte("v1")); ok {
		t.Error("expected miss for a different path")
	}
}

func TestGet_Expired(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 1, true)
	if err := c.Put("A.cs", []byte("v1"), fixtureClasses()); err != nil {
		t.Fatal(err)
	}
	c.ttl = time.Nanosecond
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("A.cs", []byte("v1")); ok {
		t.Error("expected miss for expired entry")
	}
	if _, err := os.Stat(c.keyPath("A.cs")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestDisabled(t *testing.T) {
	c, _ := New("", 0, false)
	if err := c.Put("A.cs", []byte("v1"), fixtureClasses()); err != nil {
		t.Errorf("Put() on disabled cache: %v", err)
	}
	if _, ok := c.Get("A.cs", []byte("v1")); ok {
		t.Error("disabled cache should always miss")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache: %v", err)
	}
}

func TestGetStatsAndClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, _ := New(dir, 24, true)
	for _, p := range []string{"A.cs", "B.cs"} {
		if err := c.Put(p, []byte(p), fixtureClasses()); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 2 || stats.TotalSize == 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Clear() should remove the cache directory")
	}
}

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("hello"))
	if len(a) != 64 {
		t.Errorf("HashBytes() length = %d, want 64", len(a))
	}
	if a != HashBytes([]byte("hello")) {
		t.Error("HashBytes() should be deterministic")
	}
	if a == HashBytes([]byte("world")) {
		t.Error("different input should hash differently")
	}
}
