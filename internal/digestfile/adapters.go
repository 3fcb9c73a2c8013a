package digestfile

import (
	"fmt"
	"strings"
	"sync"
)

// SourceAdapter normalizes one external source's raw webhook payload into a
// canonical Event. A nil result means the payload was recognized but is
// intentionally not worth recording.
type SourceAdapter interface {
	Source() string
	Normalize(payload map[string]any) *Event
}

type Registry struct {
	mu       sync.RWMutex
	adapters map[string]SourceAdapter
}

func NewRegistry(adapters ...SourceAdapter) *Registry {
	r := &Registry{adapters: map[string]SourceAdapter{}}
	for _, adapter := range adapters {
		r.Register(adapter)
	}
	return r
}

func (r *Registry) Register(adapter SourceAdapter) {
	if adapter == nil {
		return
	}
	source := strings.ToLower(strings.TrimSpace(adapter.Source()))
	if source == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[source] = adapter
}

// Normalize dispatches to the adapter registered for source. An unregistered
// source is ErrUnknownSource; adapter rejection (nil event) is not an error.
func (r *Registry) Normalize(source string, payload map[string]any) (*Event, error) {
	key := strings.ToLower(strings.TrimSpace(source))
	r.mu.RLock()
	adapter, ok := r.adapters[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return adapter.Normalize(payload), nil
}

func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]string, 0, len(r.adapters))
	for source := range r.adapters {
		sources = append(sources, source)
	}
	return sources
}

// LinearAdapter maps issue-tracker webhooks to plan events. Only Issue
// payloads are considered, and updates are kept only when the diff carries a
// state transition, to keep digest noise down.
type LinearAdapter struct{}

func (LinearAdapter) Source() string {
	return "linear"
}

func (LinearAdapter) Normalize(payload map[string]any) *Event {
	if toString(payload["type"]) != "Issue" {
		return nil
	}
	data, _ := payload["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	identifier := toString(data["identifier"])
	title := toString(data["title"])
	url := toString(data["url"])

	var eventType, text string
	switch toString(payload["action"]) {
	case "create":
		eventType = "plan-create"
		text = fmt.Sprintf("Issue Created: [%s] %s\n%s", identifier, title, url)
		if description := toString(data["description"]); description != "" {
			text += "\n\n" + description
		}
	case "update":
		updatedFrom, _ := payload["updatedFrom"].(map[string]any)
		if updatedFrom == nil || toString(updatedFrom["stateId"]) == "" {
			return nil
		}
		eventType = "plan-update"
		stateName := ""
		if state, ok := data["state"].(map[string]any); ok {
			stateName = toString(state["name"])
		}
		text = fmt.Sprintf("Issue Status Updated: [%s] %s -> %s\n%s", identifier, title, stateName, url)
	default:
		return nil
	}

	return &Event{
		Source:    "linear",
		EventType: eventType,
		Payload: map[string]any{
			"text":  text,
			"title": title,
			"url":   url,
			"rawId": toString(data["id"]),
		},
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
