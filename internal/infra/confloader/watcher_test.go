package confloader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func startWatcher(t *testing.T, w *Watcher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()
	// Give the goroutine a moment to enter its loop.
	time.Sleep(50 * time.Millisecond)
	return func() {
		cancel()
		<-done
	}
}

func TestNewWatcher_NonexistentDir(t *testing.T) {
	if _, err := NewWatcher("/nonexistent/path/busstate.yaml"); err == nil {
		t.Error("NewWatcher() expected error for nonexistent directory")
	}
}

func TestWatcher_OnChange_MultipleCallbacks(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "busstate.yaml"))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.fsw.Close()

	var count int
	var mu sync.Mutex
	for i := 0; i < 3; i++ {
		w.OnChange(func(string) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	w.notify()

	mu.Lock()
	defer mu.Unlock()
	if count != 3 {
		t.Errorf("callbacks run = %d, want 3", count)
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "busstate.yaml")
	writeFile(t, path, "log:\n  level: info\n")

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	stop := startWatcher(t, w)
	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcher_FileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "busstate.yaml")
	writeFile(t, path, "log:\n  level: info\n")

	w, err := NewWatcher(path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})

	stop := startWatcher(t, w)
	defer stop()

	writeFile(t, path, "log:\n  level: debug\n")

	select {
	case got := <-changed:
		if got != filepath.Clean(path) {
			t.Errorf("callback path = %q, want %q", got, path)
		}
	case <-time.After(2 * time.Second):
		t.Error("OnChange() callback was not triggered within timeout")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "busstate.yaml")
	writeFile(t, path, "log:\n  level: info\n")

	w, err := NewWatcher(path, WithDebounce(0))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(p string) { changed <- p })

	stop := startWatcher(t, w)
	defer stop()

	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")

	select {
	case got := <-changed:
		t.Errorf("callback fired for %q, want no callback", got)
	case <-time.After(300 * time.Millisecond):
	}
}
