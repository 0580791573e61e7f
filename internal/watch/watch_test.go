package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newWatcher(t *testing.T, root string) (*Watcher, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	w, err := New([]string{root}, []string{".txt"}, 20*time.Millisecond, func() error {
		calls.Add(1)
		return nil
	}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})
	return w, &calls
}

func TestWatcherDebounces(t *testing.T) {
	root := t.TempDir()
	_, calls := newWatcher(t, root)

	for i := range 5 {
		path := filepath.Join(root, "Reel.txt")
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	waitFor(t, func() bool { return calls.Load() >= 1 }, "reindex after burst")
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("reindex ran %d times for one burst, want 1", n)
	}
}

func TestWatcherNestedAndIgnored(t *testing.T) {
	root := t.TempDir()
	_, calls := newWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "cue.wav"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("non-matching file triggered %d reindexes", n)
	}

	sub := filepath.Join(root, "Reel 2")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	calls.Store(0)

	if err := os.WriteFile(filepath.Join(sub, "Reel 2.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write nested: %v", err)
	}
	waitFor(t, func() bool { return calls.Load() >= 1 }, "reindex for nested export")
}

func TestCloseStopsPendingReindex(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	w, err := New([]string{root}, []string{".txt"}, 200*time.Millisecond, func() error {
		calls.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("reindex ran %d times after Close", n)
	}
}

func waitFor(t *testing.T, predicate func() bool, label string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", label)
}
