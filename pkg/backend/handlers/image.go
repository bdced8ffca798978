package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cecil-the-coder/ai-relay/pkg/backend/middleware"
	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
	"github.com/cecil-the-coder/ai-relay/pkg/forwarder"
	"github.com/cecil-the-coder/ai-relay/pkg/metrics"
)

// ImageHandler forwards image generation requests
type ImageHandler struct {
	forwarder *forwarder.Forwarder
	metrics   *metrics.Collector
}

// NewImageHandler creates a new image handler. collector may be nil.
func NewImageHandler(f *forwarder.Forwarder, collector *metrics.Collector) *ImageHandler {
	return &ImageHandler{forwarder: f, metrics: collector}
}

// Generate handles POST /api/image
func (h *ImageHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		SendMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req backendtypes.ImageRequest
	if err := ParseJSON(r, &req); err != nil {
		SendError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		SendError(w, "No prompt provided", http.StatusBadRequest)
		return
	}

	start := time.Now()
	imageURL, err := h.forwarder.Forward(r.Context(), req.Prompt)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if r.Context().Err() != nil {
			outcome = metrics.OutcomeAborted
		}
		h.metrics.RecordImage(outcome, time.Since(start))
		log.Printf("[%s] image request failed: %v", middleware.GetRequestID(r.Context()), err)
		SendError(w, forwarder.ErrorMessage(err), http.StatusInternalServerError)
		return
	}
	h.metrics.RecordImage(metrics.OutcomeCompleted, time.Since(start))

	SendJSON(w, http.StatusOK, backendtypes.ImageResponse{ImageURL: imageURL})
}
