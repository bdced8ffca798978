package relay

import (
	"encoding/json"
	"fmt"
)

// DoneSentinel is the literal payload of the terminal success event.
const DoneSentinel = "[DONE]"

// EventKind identifies the variant of a wire Event.
type EventKind int

const (
	// EventContent carries a text fragment.
	EventContent EventKind = iota
	// EventError carries a failure message and terminates the stream.
	EventError
	// EventDone is the terminal success sentinel.
	EventDone
)

// String returns the kind name used in logs and stats.
func (k EventKind) String() string {
	switch k {
	case EventContent:
		return "content"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one outbound wire event.
type Event struct {
	Kind    EventKind
	Content string
	Error   string
}

// Content returns a content event for a text fragment.
func Content(text string) Event {
	return Event{Kind: EventContent, Content: text}
}

// Failure returns the terminal error event.
func Failure(message string) Event {
	return Event{Kind: EventError, Error: message}
}

// Done returns the terminal sentinel event.
func Done() Event {
	return Event{Kind: EventDone}
}

// IsTerminal reports whether the event ends a stream.
func (e Event) IsTerminal() bool {
	return e.Kind == EventError || e.Kind == EventDone
}

type contentPayload struct {
	Content string `json:"content"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// Payload returns the bytes carried by a single frame: a JSON object for content and
// error events, the bare sentinel for EventDone.
func (e Event) Payload() ([]byte, error) {
	switch e.Kind {
	case EventContent:
		return json.Marshal(contentPayload{Content: e.Content})
	case EventError:
		return json.Marshal(errorPayload{Error: e.Error})
	case EventDone:
		return []byte(DoneSentinel), nil
	default:
		return nil, fmt.Errorf("relay: unknown event kind %d", int(e.Kind))
	}
}

// Sink receives wire events. Implementations must push each event to the client
// before returning; a non-nil error means the client can no longer be reached.
type Sink interface {
	WriteEvent(Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

// WriteEvent calls f(e).
func (f SinkFunc) WriteEvent(e Event) error {
	return f(e)
}
