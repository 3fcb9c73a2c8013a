package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/devactivity/digestfile/internal/watchsync"
)

func main() {
	baseURL := flag.String("base-url", envOrDefault("DIGESTFILE_BASE_URL", "http://127.0.0.1:8787"), "collector base URL")
	dir := flag.String("dir", strings.TrimSpace(os.Getenv("DIGESTFILE_WATCH_DIR")), "directory tree to watch")
	projectID := flag.String("project", envOrDefault("DIGESTFILE_WATCH_PROJECT", "default-project"), "project id stamped on events")
	userID := flag.String("user", strings.TrimSpace(os.Getenv("DIGESTFILE_WATCH_USER")), "user id stamped on events")
	debounce := flag.Duration("debounce", durationEnv("DIGESTFILE_WATCH_DEBOUNCE", 500*time.Millisecond), "per-file settle window")
	flag.Parse()

	if strings.TrimSpace(*dir) == "" {
		log.Fatalf("dir is required (--dir or DIGESTFILE_WATCH_DIR)")
	}

	watcher, err := watchsync.NewWatcher(watchsync.WatcherOptions{
		Dir:       *dir,
		ProjectID: *projectID,
		UserID:    *userID,
		Client:    watchsync.NewClient(*baseURL, nil),
		Debounce:  *debounce,
	})
	if err != nil {
		log.Fatalf("failed to build watcher: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("watching %s for project %s", *dir, *projectID)
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("watcher failed: %v", err)
	}
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
