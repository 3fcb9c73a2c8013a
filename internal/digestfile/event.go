package digestfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Event is the canonical record of a single user or tool action destined for
// a project digest. Payload is opaque cargo except for "file" and "title",
// which the flush engine reads when rendering summary lines.
type Event struct {
	Source    string         `json:"source,omitempty"`
	EventType string         `json:"eventType,omitempty"`
	ProjectID string         `json:"projectId,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Timestamp int64          `json:"timestamp,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

const eventSchemaJSON = `{
	"type": "object",
	"properties": {
		"source": {"type": "string"},
		"eventType": {"type": "string"},
		"projectId": {"type": "string"},
		"userId": {"type": "string"},
		"timestamp": {"type": "integer", "minimum": 0},
		"payload": {"type": "object"}
	}
}`

var (
	eventSchemaOnce sync.Once
	eventSchema     *jsonschema.Schema
	eventSchemaErr  error
)

func compiledEventSchema() (*jsonschema.Schema, error) {
	eventSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(eventSchemaJSON)))
		if err != nil {
			eventSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("event.json", doc); err != nil {
			eventSchemaErr = err
			return
		}
		eventSchema, eventSchemaErr = compiler.Compile("event.json")
	})
	return eventSchema, eventSchemaErr
}

// ParseEvent decodes and validates a raw /v1/events body. Any decode or
// schema failure is reported as ErrInvalidEvent; callers map that to a 400.
func ParseEvent(body []byte) (Event, error) {
	schema, err := compiledEventSchema()
	if err != nil {
		return Event{}, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return Event{}, fmt.Errorf("%w: body is not an object", ErrInvalidEvent)
	}
	if err := schema.Validate(doc); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return event, nil
}
