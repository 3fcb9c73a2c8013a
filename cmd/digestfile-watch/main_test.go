package main

import (
	"testing"
	"time"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("DIGESTFILE_TEST_STR", "  value  ")
	if got := envOrDefault("DIGESTFILE_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := envOrDefault("DIGESTFILE_TEST_STR_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestDurationEnv(t *testing.T) {
	t.Setenv("DIGESTFILE_TEST_DUR", "250ms")
	if got := durationEnv("DIGESTFILE_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", got)
	}
	t.Setenv("DIGESTFILE_TEST_DUR", "soon")
	if got := durationEnv("DIGESTFILE_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %s", got)
	}
}
