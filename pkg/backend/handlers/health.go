package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
	"github.com/cecil-the-coder/ai-relay/pkg/metrics"
	"github.com/cecil-the-coder/ai-relay/pkg/ratelimit"
)

// Collaborator describes an outbound endpoint reported on /status
type Collaborator struct {
	Name    string
	Model   string
	BaseURL string
	Client  *pkghttp.HTTPClient
	Tracker *ratelimit.Tracker
	Limiter *ratelimit.Limiter
}

type HealthHandler struct {
	collaborators map[string]Collaborator
	proxy         string
	version       string
	startTime     time.Time
	metrics       *metrics.Collector
}

func NewHealthHandler(version, proxy string, collaborators map[string]Collaborator, collector *metrics.Collector) *HealthHandler {
	return &HealthHandler{
		metrics:       collector,
		collaborators: collaborators,
		proxy:         proxy,
		version:       version,
		startTime:     time.Now(),
	}
}

// Health returns simple liveness status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	SendJSON(w, http.StatusOK, backendtypes.HealthResponse{Status: "healthy"})
}

// Status returns uptime and outbound traffic per collaborator
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.collaborators))
	for name := range h.collaborators {
		names = append(names, name)
	}
	sort.Strings(names)

	collaborators := make(map[string]backendtypes.CollaboratorStatus, len(names))
	for _, key := range names {
		c := h.collaborators[key]
		status := backendtypes.CollaboratorStatus{
			Name:       c.Name,
			Model:      c.Model,
			BaseURL:    c.BaseURL,
			RateLimits: c.Tracker.Snapshot(),

			RequestsPerMinute: c.Limiter.RequestsPerMinute(),
			NearLimit:         c.Tracker.NearLimit(c.Model, ratelimit.DefaultThreshold),
		}
		if wait := c.Tracker.WaitTime(c.Model); wait > 0 {
			status.RetryIn = ratelimit.FormatDuration(wait)
		}
		if c.Client != nil {
			status.Metrics = c.Client.GetMetrics()
		}
		collaborators[key] = status
	}

	SendJSON(w, http.StatusOK, backendtypes.StatusResponse{
		Status:        "healthy",
		Version:       h.version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Proxy:         h.proxy,
		Collaborators: collaborators,
		Traffic:       h.metrics.Snapshot(),
	})
}

// Version returns version information
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	SendJSON(w, http.StatusOK, backendtypes.VersionResponse{Version: h.version})
}
