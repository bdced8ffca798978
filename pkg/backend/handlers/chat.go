package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/cecil-the-coder/ai-relay/pkg/backend/middleware"
	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
	"github.com/cecil-the-coder/ai-relay/pkg/metrics"
	"github.com/cecil-the-coder/ai-relay/pkg/relay"
)

// ChatHandler streams chat replies over Server-Sent Events
type ChatHandler struct {
	relay   *relay.Relay
	metrics *metrics.Collector
}

// NewChatHandler creates a new chat handler. collector may be nil.
func NewChatHandler(r *relay.Relay, collector *metrics.Collector) *ChatHandler {
	return &ChatHandler{relay: r, metrics: collector}
}

// Chat handles POST /api/chat. Input errors are answered with 400 before any
// collaborator call; after that every outcome is reported inside the stream.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		SendMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req backendtypes.ChatRequest
	if err := ParseJSON(r, &req); err != nil {
		SendError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		SendError(w, "No message provided", http.StatusBadRequest)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		SendError(w, "Streaming not supported by server", http.StatusInternalServerError)
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	if err := sse.Open(); err != nil {
		log.Printf("[%s] chat stream: client disconnected before start: %v", requestID, err)
		return
	}

	stats, err := h.relay.Stream(r.Context(), req.Message, sse)
	h.record(requestID, "chat stream", stats, err)
}

// record logs the per-stream summary line and feeds the traffic metrics
func (h *ChatHandler) record(requestID, label string, stats relay.Stats, err error) {
	outcome := metrics.OutcomeCompleted
	switch {
	case err == nil:
		log.Printf("[%s] %s complete: %s", requestID, label, stats)
	case errors.Is(err, relay.ErrClientGone):
		outcome = metrics.OutcomeAborted
		log.Printf("[%s] %s aborted, %v: %s", requestID, label, err, stats)
	default:
		outcome = metrics.OutcomeFailed
		log.Printf("[%s] [ERROR] %s failed: %v: %s", requestID, label, err, stats)
	}
	h.metrics.RecordStream(outcome, stats.Duration, stats.FirstContent, stats.ContentFrames)
}
