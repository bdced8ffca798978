// Package ratelimit paces outbound collaborator requests and tracks the rate limit
// state collaborators advertise in their response headers.
//
// Nothing here retries: a Limiter delays a request until a token is available and a
// Tracker only records what the upstream reported, for display on the status endpoint.
package ratelimit

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

// Info contains rate limit information reported by a collaborator for one model.
type Info struct {
	// Provider is the name of the collaborator (e.g., "chat", "image")
	Provider string `json:"provider"`

	// Model is the model identifier the request was made for
	Model string `json:"model"`

	// Timestamp is when this rate limit information was captured
	Timestamp time.Time `json:"timestamp"`

	// RequestsLimit is the maximum number of requests allowed in the current window
	RequestsLimit int `json:"requests_limit,omitempty"`

	// RequestsRemaining is the number of requests remaining in the current window
	RequestsRemaining int `json:"requests_remaining,omitempty"`

	// RequestsReset is when the request limit counter will reset
	RequestsReset time.Time `json:"requests_reset,omitempty"`

	// TokensLimit is the maximum number of tokens allowed in the current window
	TokensLimit int `json:"tokens_limit,omitempty"`

	// TokensRemaining is the number of tokens remaining in the current window
	TokensRemaining int `json:"tokens_remaining,omitempty"`

	// TokensReset is when the token limit counter will reset
	TokensReset time.Time `json:"tokens_reset,omitempty"`

	// RequestID is the upstream identifier of the request that produced this info
	RequestID string `json:"request_id,omitempty"`

	// RetryAfter is how long the upstream asked callers to wait (Retry-After header)
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Parser extracts rate limit information from collaborator response headers.
type Parser interface {
	// Parse returns nil info when the headers carry no rate limit data.
	Parse(headers http.Header, model string) (*Info, error)

	// ProviderName returns the name recorded in Info.Provider.
	ProviderName() string
}

// Tracker keeps the most recent Info per model. All methods are safe for
// concurrent use and treat a nil *Tracker as empty.
type Tracker struct {
	mu      sync.RWMutex
	byModel map[string]Info
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{byModel: make(map[string]Info)}
}

// Update replaces the stored Info for info.Model. A nil info is ignored.
func (t *Tracker) Update(info *Info) {
	if t == nil || info == nil {
		return
	}
	t.mu.Lock()
	t.byModel[info.Model] = *info
	t.mu.Unlock()
}

// Get returns a copy of the latest Info for model.
func (t *Tracker) Get(model string) (Info, bool) {
	if t == nil {
		return Info{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.byModel[model]
	return info, ok
}

// Snapshot returns every tracked entry ordered by model name.
func (t *Tracker) Snapshot() []Info {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	out := make([]Info, 0, len(t.byModel))
	for _, info := range t.byModel {
		out = append(out, info)
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b Info) int { return strings.Compare(a.Model, b.Model) })
	return out
}

// WaitTime is how long the upstream asked callers of model to hold off: the
// Retry-After value when one was sent, otherwise the time until the latest
// exhausted window resets. Zero means no wait.
func (t *Tracker) WaitTime(model string) time.Duration {
	info, ok := t.Get(model)
	if !ok {
		return 0
	}
	if info.RetryAfter > 0 {
		return info.RetryAfter
	}

	now := time.Now()
	var until time.Time
	for _, w := range info.windows() {
		if w.limit > 0 && w.remaining <= 0 && now.Before(w.reset) && w.reset.After(until) {
			until = w.reset
		}
	}
	if until.IsZero() {
		return 0
	}
	return until.Sub(now)
}

// NearLimit reports whether either window of model has used at least threshold
// (0..1) of its allowance. Out-of-range thresholds fall back to DefaultThreshold.
func (t *Tracker) NearLimit(model string, threshold float64) bool {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	info, ok := t.Get(model)
	if !ok {
		return false
	}

	now := time.Now()
	for _, w := range info.windows() {
		if w.limit <= 0 || w.reset.IsZero() || !now.Before(w.reset) {
			continue
		}
		if 1-float64(w.remaining)/float64(w.limit) >= threshold {
			return true
		}
	}
	return false
}

// DefaultThreshold is the share of a window treated as near its limit.
const DefaultThreshold = 0.8

type window struct {
	limit, remaining int
	reset            time.Time
}

func (i Info) windows() [2]window {
	return [2]window{
		{i.RequestsLimit, i.RequestsRemaining, i.RequestsReset},
		{i.TokensLimit, i.TokensRemaining, i.TokensReset},
	}
}
