package archiver

import (
	"encoding/json"
	"fmt"

	"github.com/binsift/binsift/pkg/types"
)

// EventType discriminates progress event variants.
type EventType string

const (
	EventInfo     EventType = "info"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one record in the progress sequence an archive build emits.
// The sequence is strictly ordered and terminates in exactly one
// complete or error event.
type Event struct {
	Type     EventType
	Message  string
	Percent  int
	SourceID types.SourceID
	Size     int64
}

// Info builds an informational event.
func Info(message string) Event {
	return Event{Type: EventInfo, Message: message}
}

// Progress builds a progress event with a 0..100 percent value.
func Progress(percent int, message string) Event {
	return Event{Type: EventProgress, Percent: percent, Message: message}
}

// Complete builds the terminal success event.
func Complete(id types.SourceID, size int64) Event {
	return Event{Type: EventComplete, SourceID: id, Size: size}
}

// Errorf builds the terminal failure event.
func Errorf(format string, args ...interface{}) Event {
	return Event{Type: EventError, Message: fmt.Sprintf(format, args...)}
}

// eventJSON is the wire shape; only the fields relevant to a variant
// are serialized, so each event parses independently.
type eventJSON struct {
	Type     EventType `json:"type"`
	Message  string    `json:"message,omitempty"`
	Percent  *int      `json:"value,omitempty"`
	SourceID string    `json:"source_id,omitempty"`
	Size     *int64    `json:"size,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{Type: e.Type, Message: e.Message}
	switch e.Type {
	case EventProgress:
		percent := e.Percent
		out.Percent = &percent
	case EventComplete:
		size := e.Size
		out.SourceID = e.SourceID.Hex()
		out.Size = &size
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	e.Type = in.Type
	e.Message = in.Message
	if in.Percent != nil {
		e.Percent = *in.Percent
	}
	if in.Size != nil {
		e.Size = *in.Size
	}
	if in.SourceID != "" {
		id, err := types.ParseSourceID(in.SourceID)
		if err != nil {
			return err
		}
		e.SourceID = id
	}
	return nil
}

// Terminal reports whether the event ends a progress sequence.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
