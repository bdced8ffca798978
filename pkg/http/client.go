// Package http provides the outbound HTTP client shared by the chat and image collaborators.
// It includes a pooled transport with explicit proxy selection, optional bearer credentials
// and request metrics.
package http

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
)

const defaultUserAgent = "ai-relay/1.0"

// HTTPClientConfig configures the HTTP client
type HTTPClientConfig struct {
	// Timeout bounds the whole request including reading the body.
	// Leave zero for streaming clients and rely on the request context.
	Timeout time.Duration `json:"timeout,omitempty"`

	// ResponseHeaderTimeout bounds the wait for the first response byte
	ResponseHeaderTimeout time.Duration `json:"response_header_timeout,omitempty"`

	Headers   map[string]string `json:"headers,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`

	// BearerToken is attached as "Authorization: Bearer <token>" when set
	BearerToken string `json:"-"`

	// Proxy selects the outbound proxy; the zero value connects directly
	Proxy ProxyConfig `json:"-"`

	MaxIdleConns        int           `json:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout time.Duration `json:"tls_handshake_timeout,omitempty"`
}

func (c HTTPClientConfig) withDefaults() HTTPClientConfig {
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = 10 * time.Second
	}

	headers := maps.Clone(c.Headers)
	if headers == nil {
		headers = make(map[string]string, 1)
	}
	switch {
	case c.UserAgent != "":
		headers["User-Agent"] = c.UserAgent
	case headers["User-Agent"] == "":
		headers["User-Agent"] = defaultUserAgent
	}
	c.Headers = headers
	return c
}

// ClientMetrics is a point-in-time view of the traffic sent through an HTTPClient.
// FailedReqs counts transport errors plus non-2xx responses.
type ClientMetrics struct {
	TotalRequests     int64         `json:"total_requests"`
	SuccessfulReqs    int64         `json:"successful_requests"`
	FailedReqs        int64         `json:"failed_requests"`
	TransportErrors   int64         `json:"transport_errors"`
	AvgLatency        time.Duration `json:"avg_latency"`
	LastRequestTime   time.Time     `json:"last_request_time,omitempty"`
	ResponsesByStatus map[int]int64 `json:"responses_by_status"`
}

// HTTPClient wraps a pooled http.Client and records metrics for every call
type HTTPClient struct {
	client  *http.Client
	headers map[string]string

	total      atomic.Int64
	succeeded  atomic.Int64
	failed     atomic.Int64
	transport  atomic.Int64
	latencyNs  atomic.Int64
	lastUnixNs atomic.Int64

	mu       sync.Mutex
	byStatus map[int]int64
}

// NewHTTPClient creates a client; unset pool settings get conservative defaults.
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	config = config.withDefaults()
	return &HTTPClient{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: newRoundTripper(config),
		},
		headers:  config.Headers,
		byStatus: make(map[int]int64),
	}
}

func newRoundTripper(config HTTPClientConfig) http.RoundTripper {
	base := &http.Transport{
		Proxy:                 config.Proxy.ProxyFunc(),
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	if config.BearerToken == "" {
		return base
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.BearerToken, TokenType: "Bearer"}),
		Base:   base,
	}
}

// Do sends req exactly once. Cancellation follows req.Context().
// Default headers fill in only what req does not already carry.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.observe(resp, err, start)
	return resp, err
}

// DoBody sends req and reads the whole response body, closing it.
func (c *HTTPClient) DoBody(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("read response body: %w", err)
	}
	return body, resp, nil
}

func (c *HTTPClient) observe(resp *http.Response, err error, start time.Time) {
	c.total.Add(1)
	c.latencyNs.Add(int64(time.Since(start)))
	c.lastUnixNs.Store(time.Now().UnixNano())

	if err != nil {
		c.transport.Add(1)
		c.failed.Add(1)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.succeeded.Add(1)
	} else {
		c.failed.Add(1)
	}

	c.mu.Lock()
	c.byStatus[resp.StatusCode]++
	c.mu.Unlock()
}

// GetMetrics returns a copy of the current counters
func (c *HTTPClient) GetMetrics() ClientMetrics {
	metrics := ClientMetrics{
		TotalRequests:   c.total.Load(),
		SuccessfulReqs:  c.succeeded.Load(),
		FailedReqs:      c.failed.Load(),
		TransportErrors: c.transport.Load(),
	}
	if metrics.TotalRequests > 0 {
		metrics.AvgLatency = time.Duration(c.latencyNs.Load() / metrics.TotalRequests)
	}
	if last := c.lastUnixNs.Load(); last != 0 {
		metrics.LastRequestTime = time.Unix(0, last)
	}

	c.mu.Lock()
	metrics.ResponsesByStatus = maps.Clone(c.byStatus)
	c.mu.Unlock()
	return metrics
}

// Client returns the underlying http.Client
func (c *HTTPClient) Client() *http.Client {
	return c.client
}
