package handlers

import (
	"fmt"
	"net/http"

	"github.com/cecil-the-coder/ai-relay/pkg/relay"
)

// SSEWriter writes relay events as Server-Sent Events. Every event is flushed
// before WriteEvent returns. Nothing is written after a terminal event.
type SSEWriter struct {
	w          http.ResponseWriter
	controller *http.ResponseController
	ended      bool
}

// NewSSEWriter creates a new SSEWriter and sets up SSE headers
// Returns an error if the http.ResponseWriter does not support flushing
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	// Ensure the ResponseWriter supports flushing
	if _, ok := w.(http.Flusher); !ok {
		return nil, fmt.Errorf("streaming not supported: ResponseWriter does not implement http.Flusher")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{
		w:          w,
		controller: http.NewResponseController(w),
	}, nil
}

// Open sends the status line and headers so the client sees the stream start
func (s *SSEWriter) Open() error {
	s.w.WriteHeader(http.StatusOK)
	return s.controller.Flush()
}

// WriteEvent writes one "data: <payload>\n\n" frame and flushes it.
// An error means the client is no longer reachable.
func (s *SSEWriter) WriteEvent(event relay.Event) error {
	if s.ended {
		return relay.ErrStreamEnded
	}
	payload, err := event.Payload()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.ended = event.IsTerminal()
	return s.controller.Flush()
}
