package backendtypes

import (
	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
	"github.com/cecil-the-coder/ai-relay/pkg/metrics"
	"github.com/cecil-the-coder/ai-relay/pkg/ratelimit"
)

// ErrorResponse is the body of every non-streamed failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// ImageResponse is the body of a successful POST /api/image
type ImageResponse struct {
	ImageURL string `json:"image_url"`
}

// HealthResponse for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse for GET /version
type VersionResponse struct {
	Version string `json:"version"`
}

// StatusResponse for GET /status
type StatusResponse struct {
	Status        string                        `json:"status"`
	Version       string                        `json:"version"`
	Uptime        string                        `json:"uptime"`
	Proxy         string                        `json:"proxy"`
	Collaborators map[string]CollaboratorStatus `json:"collaborators"`
	Traffic       metrics.Snapshot              `json:"traffic"`
}

// CollaboratorStatus reports outbound traffic to one collaborator
type CollaboratorStatus struct {
	Name       string                `json:"name"`
	Model      string                `json:"model"`
	BaseURL    string                `json:"base_url"`
	Metrics    pkghttp.ClientMetrics `json:"metrics"`
	RateLimits []ratelimit.Info      `json:"rate_limits,omitempty"`

	// RequestsPerMinute is the local pacing limit, 0 when unlimited
	RequestsPerMinute int `json:"requests_per_minute"`
	// NearLimit is set when an upstream window is mostly used up
	NearLimit bool `json:"near_limit"`
	// RetryIn is how long the upstream asked us to back off, if at all
	RetryIn string `json:"retry_in,omitempty"`
}
