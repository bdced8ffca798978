package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// HeaderParser implements Parser for the x-ratelimit-* headers sent by
// OpenAI-compatible endpoints:
//   - x-ratelimit-limit-requests / x-ratelimit-remaining-requests
//   - x-ratelimit-reset-requests: duration until the window resets (e.g., "6m0s")
//   - x-ratelimit-limit-tokens / x-ratelimit-remaining-tokens / x-ratelimit-reset-tokens
//   - x-request-id
//   - retry-after: seconds
type HeaderParser struct {
	provider string
}

// NewHeaderParser creates a parser that labels its results with provider.
func NewHeaderParser(provider string) *HeaderParser {
	return &HeaderParser{provider: provider}
}

// Parse extracts rate limit information from response headers. Reset durations
// are converted to absolute timestamps. It returns nil when no rate limit header
// is present.
func (p *HeaderParser) Parse(headers http.Header, model string) (*Info, error) {
	info := &Info{
		Provider:  p.provider,
		Model:     model,
		Timestamp: time.Now(),
	}
	found := false

	found = parseInt(headers, "x-ratelimit-limit-requests", &info.RequestsLimit) || found
	found = parseInt(headers, "x-ratelimit-remaining-requests", &info.RequestsRemaining) || found
	found = parseReset(headers, "x-ratelimit-reset-requests", info.Timestamp, &info.RequestsReset) || found
	found = parseInt(headers, "x-ratelimit-limit-tokens", &info.TokensLimit) || found
	found = parseInt(headers, "x-ratelimit-remaining-tokens", &info.TokensRemaining) || found
	found = parseReset(headers, "x-ratelimit-reset-tokens", info.Timestamp, &info.TokensReset) || found

	if retryAfter := headers.Get("retry-after"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			info.RetryAfter = time.Duration(seconds) * time.Second
			found = true
		}
	}

	if !found {
		return nil, nil
	}

	info.RequestID = headers.Get("x-request-id")
	return info, nil
}

// ProviderName returns the provider label given to NewHeaderParser.
func (p *HeaderParser) ProviderName() string {
	return p.provider
}

func parseInt(headers http.Header, key string, dst *int) bool {
	value := headers.Get(key)
	if value == "" {
		return false
	}
	val, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	*dst = val
	return true
}

func parseReset(headers http.Header, key string, now time.Time, dst *time.Time) bool {
	value := headers.Get(key)
	if value == "" {
		return false
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return false
	}
	*dst = now.Add(duration)
	return true
}

// FormatDuration formats a duration in a human-readable way for status output.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
