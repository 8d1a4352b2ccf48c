package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/hoist/pkg/config"
)

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()

	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, 500 * time.Millisecond},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWatcher(tmpDir, cfg, tt.debounce)
			if err != nil {
				t.Fatalf("NewWatcher() error = %v", err)
			}
			defer w.Stop()

			if w.fsWatcher == nil {
				t.Error("fsWatcher should not be nil")
			}
			if w.root != tmpDir {
				t.Errorf("root = %v, want %v", w.root, tmpDir)
			}
			if w.pending == nil {
				t.Error("pending map should be initialized")
			}
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
		})
	}
}

func TestWatcher_Stop(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), config.DefaultConfig(), time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWatcher_addTree(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"src/models", "node_modules/lib", "obj"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	w, err := NewWatcher(tmpDir, config.DefaultConfig(), time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.addTree(tmpDir); err != nil {
		t.Fatalf("addTree() error = %v", err)
	}

	dirs := w.WatchedDirs()
	for _, want := range []string{tmpDir, filepath.Join(tmpDir, "src"), filepath.Join(tmpDir, "src", "models")} {
		if !slices.Contains(dirs, want) {
			t.Errorf("WatchedDirs() missing %v: %v", want, dirs)
		}
	}
	for _, skipped := range []string{filepath.Join(tmpDir, "node_modules"), filepath.Join(tmpDir, "obj")} {
		if slices.Contains(dirs, skipped) {
			t.Errorf("WatchedDirs() should not contain excluded %v", skipped)
		}
	}
}

func TestWatcher_handleEvent(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := NewWatcher(tmpDir, config.DefaultConfig(), time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	tests := []struct {
		name        string
		event       fsnotify.Event
		wantPending bool
	}{
		{
			name:        "write event for C# file",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "Foo.cs"), Op: fsnotify.Write},
			wantPending: true,
		},
		{
			name:        "create event for Java file",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "Bar.java"), Op: fsnotify.Create},
			wantPending: true,
		},
		{
			name:        "remove event recorded",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "Gone.cs"), Op: fsnotify.Remove},
			wantPending: true,
		},
		{
			name:        "rename event recorded",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "old.py"), Op: fsnotify.Rename},
			wantPending: true,
		},
		{
			name:        "chmod event ignored",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "Foo.cs"), Op: fsnotify.Chmod},
			wantPending: false,
		},
		{
			name:        "unsupported file type ignored",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "readme.txt"), Op: fsnotify.Write},
			wantPending: false,
		},
		{
			name:        "excluded directory ignored",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "obj", "Foo.cs"), Op: fsnotify.Write},
			wantPending: false,
		},
		{
			name:        "excluded pattern ignored",
			event:       fsnotify.Event{Name: filepath.Join(tmpDir, "Form.Designer.cs"), Op: fsnotify.Write},
			wantPending: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.mu.Lock()
			w.pending = make(map[string]time.Time)
			w.mu.Unlock()

			w.handleEvent(tt.event)

			w.mu.Lock()
			_, found := w.pending[tt.event.Name]
			w.mu.Unlock()

			if found != tt.wantPending {
				t.Errorf("pending[%v] = %v, want %v", tt.event.Name, found, tt.wantPending)
			}
		})
	}
}

func TestWatcher_handleEvent_LanguageFilter(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Analysis.Languages = []string{"csharp"}

	w, err := NewWatcher(tmpDir, cfg, time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	w.handleEvent(fsnotify.Event{Name: filepath.Join(tmpDir, "Foo.cs"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(tmpDir, "Foo.java"), Op: fsnotify.Write})

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) != 1 {
		t.Errorf("pending = %v, want only Foo.cs", w.pending)
	}
}

func TestWatcher_handleEvent_NewDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := NewWatcher(tmpDir, config.DefaultConfig(), time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	sub := filepath.Join(tmpDir, "services")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	w.handleEvent(fsnotify.Event{Name: sub, Op: fsnotify.Create})

	if !slices.Contains(w.WatchedDirs(), sub) {
		t.Errorf("new directory %v not watched: %v", sub, w.WatchedDirs())
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) != 0 {
		t.Errorf("directory should not be pending: %v", w.pending)
	}
}

func TestWatcher_takeReady(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), config.DefaultConfig(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	now := time.Now()
	w.pending["b.cs"] = now.Add(-100 * time.Millisecond)
	w.pending["a.cs"] = now.Add(-200 * time.Millisecond)
	w.pending["c.cs"] = now

	ready := w.takeReady(now)
	if !slices.Equal(ready, []string{"a.cs", "b.cs"}) {
		t.Errorf("takeReady() = %v, want [a.cs b.cs]", ready)
	}
	if _, ok := w.pending["c.cs"]; !ok {
		t.Error("file inside debounce period should stay pending")
	}
	if len(w.pending) != 1 {
		t.Errorf("ready files should be removed from pending: %v", w.pending)
	}
}

func TestWatcher_processDebounced_NoCallback(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), config.DefaultConfig(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	w.pending["a.cs"] = time.Now().Add(-time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	// Must not panic without a callback.
	w.processDebounced(ctx)

	if len(w.takeReady(time.Now())) != 0 {
		t.Error("pending change should have been drained")
	}
}

func TestWatcher_Start_ContextCancel(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), config.DefaultConfig(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestWatcher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	w, err := NewWatcher(tmpDir, config.DefaultConfig(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	var batches [][]string
	w.SetCallback(func(_ context.Context, changed []string) {
		mu.Lock()
		batches = append(batches, changed)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	file := filepath.Join(tmpDir, "Foo.cs")
	if err := os.WriteFile(file, []byte("public class Foo {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(batches)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) == 0 {
		t.Fatal("callback was not invoked")
	}
	if !slices.Equal(batches[0], []string{file}) {
		t.Errorf("first batch = %v, want [%v]", batches[0], file)
	}
}
