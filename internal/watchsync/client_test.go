package watchsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devactivity/digestfile/internal/digestfile"
)

func TestClientPostEvent(t *testing.T) {
	var received digestfile.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.PostEvent(context.Background(), digestfile.Event{
		Source:    "ide",
		EventType: "save",
		ProjectID: "demo",
		Payload:   map[string]any{"file": "main.go"},
	})
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if received.EventType != "save" || received.ProjectID != "demo" {
		t.Fatalf("unexpected event received: %+v", received)
	}
	if received.Payload["file"] != "main.go" {
		t.Fatalf("expected file in payload, got %+v", received.Payload)
	}
}

func TestClientPostEventErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid JSON"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.PostEvent(context.Background(), digestfile.Event{EventType: "save"})
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", httpErr.StatusCode)
	}
}
