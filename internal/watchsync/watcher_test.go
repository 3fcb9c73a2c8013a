package watchsync

import (
	"testing"
	"time"
)

func TestTakeReadyHonorsDebounceWindow(t *testing.T) {
	watcher, err := NewWatcher(WatcherOptions{
		Dir:      t.TempDir(),
		Client:   NewClient("http://127.0.0.1:1", nil),
		Debounce: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new watcher failed: %v", err)
	}

	now := time.Now()
	watcher.mu.Lock()
	watcher.pending["/w/old.go"] = now.Add(-200 * time.Millisecond)
	watcher.pending["/w/fresh.go"] = now
	watcher.mu.Unlock()

	ready := watcher.takeReady(now)
	if len(ready) != 1 || ready[0] != "/w/old.go" {
		t.Fatalf("expected only the settled file, got %v", ready)
	}

	ready = watcher.takeReady(now.Add(150 * time.Millisecond))
	if len(ready) != 1 || ready[0] != "/w/fresh.go" {
		t.Fatalf("expected fresh file after settling, got %v", ready)
	}
	if len(watcher.pending) != 0 {
		t.Fatalf("expected pending map drained, got %d entries", len(watcher.pending))
	}
}

func TestHiddenPath(t *testing.T) {
	if !hiddenPath("/w", "/w/.git/config") {
		t.Fatalf("expected .git to be hidden")
	}
	if hiddenPath("/w", "/w/src/main.go") {
		t.Fatalf("expected normal path to be visible")
	}
	if hiddenPath("/w", "/w") {
		t.Fatalf("root itself is not hidden")
	}
}

func TestNewWatcherValidation(t *testing.T) {
	if _, err := NewWatcher(WatcherOptions{Client: NewClient("", nil)}); err == nil {
		t.Fatalf("expected error without dir")
	}
	if _, err := NewWatcher(WatcherOptions{Dir: t.TempDir()}); err == nil {
		t.Fatalf("expected error without client")
	}
}
