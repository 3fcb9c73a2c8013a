package watchsync

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/devactivity/digestfile/internal/digestfile"
)

type WatcherOptions struct {
	// Dir is the root of the tree to watch.
	Dir string
	// ProjectID stamps every posted event.
	ProjectID string
	// UserID is optional and passed through as-is.
	UserID string
	// Client posts the events. Required.
	Client *Client
	// Debounce collapses write bursts per file. Defaults to 500ms.
	Debounce time.Duration
	Logf     func(format string, args ...any)
}

// Watcher observes a local directory tree and posts one save event per
// settled file change. Bursty editors (write + rename + chmod) collapse into
// a single event per debounce window.
type Watcher struct {
	dir       string
	projectID string
	userID    string
	client    *Client
	debounce  time.Duration
	logf      func(format string, args ...any)

	mu      sync.Mutex
	pending map[string]time.Time
}

func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	if strings.TrimSpace(opts.Dir) == "" || opts.Client == nil {
		return nil, os.ErrInvalid
	}
	if strings.TrimSpace(opts.ProjectID) == "" {
		opts.ProjectID = "default-project"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Watcher{
		dir:       filepath.Clean(opts.Dir),
		projectID: opts.ProjectID,
		userID:    opts.UserID,
		client:    opts.Client,
		debounce:  opts.Debounce,
		logf:      opts.Logf,
		pending:   map[string]time.Time{},
	}, nil
}

// Run watches until the context is canceled. Post failures are logged and
// dropped; the watcher never retries.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer notifier.Close()

	if err := addWatchTree(notifier, w.dir); err != nil {
		return err
	}

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			w.observe(notifier, event)
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logf("watch error: %v", err)
		case now := <-ticker.C:
			w.post(ctx, w.takeReady(now))
		}
	}
}

func (w *Watcher) observe(notifier *fsnotify.Watcher, event fsnotify.Event) {
	if hiddenPath(w.dir, event.Name) {
		return
	}
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addWatchTree(notifier, event.Name); err != nil {
				w.logf("watch add %s: %v", event.Name, err)
			}
			return
		}
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// takeReady removes and returns paths whose last change settled a full
// debounce window before now, sorted for deterministic posting order.
func (w *Watcher) takeReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ready := make([]string, 0, len(w.pending))
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) post(ctx context.Context, paths []string) {
	for _, path := range paths {
		file := path
		if rel, err := filepath.Rel(w.dir, path); err == nil {
			file = filepath.ToSlash(rel)
		}
		event := digestfile.Event{
			Source:    "ide",
			EventType: "save",
			ProjectID: w.projectID,
			UserID:    w.userID,
			Payload:   map[string]any{"file": file},
		}
		if err := w.client.PostEvent(ctx, event); err != nil {
			w.logf("post save event for %s: %v", file, err)
		}
	}
}

func addWatchTree(notifier *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		return notifier.Add(path)
	})
}

func hiddenPath(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
