package digestfile

import "testing"

func TestLinearAdapterCreate(t *testing.T) {
	event := LinearAdapter{}.Normalize(map[string]any{
		"action": "create",
		"type":   "Issue",
		"data": map[string]any{
			"id":          "uuid-1",
			"identifier":  "LIN-123",
			"title":       "Found a bug",
			"url":         "https://x",
			"description": "d",
		},
	})
	if event == nil {
		t.Fatalf("expected event for issue create")
	}
	if event.EventType != "plan-create" {
		t.Fatalf("expected plan-create, got %s", event.EventType)
	}
	if event.Source != "linear" {
		t.Fatalf("expected source linear, got %s", event.Source)
	}
	text, _ := event.Payload["text"].(string)
	if text != "Issue Created: [LIN-123] Found a bug\nhttps://x\n\nd" {
		t.Fatalf("unexpected text: %q", text)
	}
	if event.Payload["title"] != "Found a bug" {
		t.Fatalf("expected title carried through, got %v", event.Payload["title"])
	}
	if event.Payload["rawId"] != "uuid-1" {
		t.Fatalf("expected rawId uuid-1, got %v", event.Payload["rawId"])
	}
}

func TestLinearAdapterCreateWithoutDescription(t *testing.T) {
	event := LinearAdapter{}.Normalize(map[string]any{
		"action": "create",
		"type":   "Issue",
		"data": map[string]any{
			"identifier": "LIN-9",
			"title":      "No detail",
			"url":        "https://x/9",
		},
	})
	if event == nil {
		t.Fatalf("expected event for issue create")
	}
	text, _ := event.Payload["text"].(string)
	if text != "Issue Created: [LIN-9] No detail\nhttps://x/9" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestLinearAdapterUpdateWithStateChange(t *testing.T) {
	event := LinearAdapter{}.Normalize(map[string]any{
		"action": "update",
		"type":   "Issue",
		"updatedFrom": map[string]any{
			"stateId": "state-old",
		},
		"data": map[string]any{
			"identifier": "LIN-123",
			"title":      "Found a bug",
			"url":        "https://x",
			"state":      map[string]any{"name": "In Progress"},
		},
	})
	if event == nil {
		t.Fatalf("expected event for status transition")
	}
	if event.EventType != "plan-update" {
		t.Fatalf("expected plan-update, got %s", event.EventType)
	}
	text, _ := event.Payload["text"].(string)
	if text != "Issue Status Updated: [LIN-123] Found a bug -> In Progress\nhttps://x" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestLinearAdapterUpdateWithoutStateChange(t *testing.T) {
	event := LinearAdapter{}.Normalize(map[string]any{
		"action": "update",
		"type":   "Issue",
		"updatedFrom": map[string]any{
			"description": "old",
		},
		"data": map[string]any{
			"identifier": "LIN-123",
			"title":      "Found a bug",
		},
	})
	if event != nil {
		t.Fatalf("expected nil for update without state change, got %+v", event)
	}
}

func TestLinearAdapterIgnoresNonIssue(t *testing.T) {
	event := LinearAdapter{}.Normalize(map[string]any{
		"action": "create",
		"type":   "Comment",
		"data":   map[string]any{"id": "c1"},
	})
	if event != nil {
		t.Fatalf("expected nil for non-issue payload, got %+v", event)
	}
}

func TestLinearAdapterIgnoresOtherActions(t *testing.T) {
	event := LinearAdapter{}.Normalize(map[string]any{
		"action": "remove",
		"type":   "Issue",
		"data":   map[string]any{"identifier": "LIN-1"},
	})
	if event != nil {
		t.Fatalf("expected nil for unsupported action, got %+v", event)
	}
}

func TestRegistryUnknownSource(t *testing.T) {
	registry := NewRegistry(LinearAdapter{})
	if _, err := registry.Normalize("jira", map[string]any{}); err == nil {
		t.Fatalf("expected error for unregistered source")
	}
	event, err := registry.Normalize("LINEAR", map[string]any{"type": "Comment"})
	if err != nil {
		t.Fatalf("expected case-insensitive lookup, got %v", err)
	}
	if event != nil {
		t.Fatalf("expected nil event for ignored payload")
	}
}
