package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpproxy"
)

var supportedProxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// ProxyConfig selects an outbound proxy per target scheme.
// The zero value connects directly. Values are immutable once built.
//
// Hosts matched by the NO_PROXY list, localhost and loopback addresses are
// always reached directly.
type ProxyConfig struct {
	httpProxy  *url.URL
	httpsProxy *url.URL
	noProxy    string
	proxyFor   func(*url.URL) (*url.URL, error)
}

// NewProxyConfig parses the two optional proxy endpoints and the NO_PROXY list
// (comma separated hosts, domains, CIDRs or "*"). Empty strings are ignored;
// a scheme-less proxy is treated as http.
func NewProxyConfig(httpProxy, httpsProxy, noProxy string) (ProxyConfig, error) {
	var config ProxyConfig
	var err error
	if config.httpProxy, err = parseProxyURL(httpProxy); err != nil {
		return ProxyConfig{}, fmt.Errorf("invalid http proxy: %w", err)
	}
	if config.httpsProxy, err = parseProxyURL(httpsProxy); err != nil {
		return ProxyConfig{}, fmt.Errorf("invalid https proxy: %w", err)
	}
	if !config.Enabled() {
		return ProxyConfig{}, nil
	}

	// A single configured proxy serves both schemes
	forHTTP, forHTTPS := config.httpProxy, config.httpsProxy
	if forHTTP == nil {
		forHTTP = forHTTPS
	}
	if forHTTPS == nil {
		forHTTPS = forHTTP
	}

	config.noProxy = strings.TrimSpace(noProxy)
	bypass := (&httpproxy.Config{
		HTTPProxy:  forHTTP.String(),
		HTTPSProxy: forHTTPS.String(),
		NoProxy:    config.noProxy,
	}).ProxyFunc()
	config.proxyFor = func(target *url.URL) (*url.URL, error) {
		// httpproxy only decides direct versus proxied; the parsed endpoint is returned as is
		if via, err := bypass(target); err != nil || via == nil {
			return nil, err
		}
		if target.Scheme == "https" {
			return forHTTPS, nil
		}
		return forHTTP, nil
	}
	return config, nil
}

// Enabled reports whether any proxy is configured
func (p ProxyConfig) Enabled() bool {
	return p.httpProxy != nil || p.httpsProxy != nil
}

// ProxyFor returns the proxy for a target URL, or nil for a direct connection.
// https targets prefer the HTTPS proxy, everything else the HTTP proxy.
func (p ProxyConfig) ProxyFor(target *url.URL) *url.URL {
	if p.proxyFor == nil || target == nil {
		return nil
	}
	proxy, err := p.proxyFor(target)
	if err != nil {
		return nil
	}
	return proxy
}

// ProxyFunc returns a function suitable for http.Transport.Proxy, nil when direct
func (p ProxyConfig) ProxyFunc() func(*http.Request) (*url.URL, error) {
	if p.proxyFor == nil {
		return nil
	}
	return func(req *http.Request) (*url.URL, error) {
		return p.proxyFor(req.URL)
	}
}

// String returns the configured proxies with credentials redacted
func (p ProxyConfig) String() string {
	if !p.Enabled() {
		return "direct"
	}
	out := fmt.Sprintf("http=%s https=%s", redact(p.httpProxy), redact(p.httpsProxy))
	if p.noProxy != "" {
		out += " no_proxy=" + p.noProxy
	}
	return out
}

func parseProxyURL(value string) (*url.URL, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if !strings.Contains(value, "://") {
		value = "http://" + value
	}
	u, err := url.Parse(value)
	if err != nil {
		return nil, err
	}
	if !supportedProxySchemes[strings.ToLower(u.Scheme)] {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", value)
	}
	return u, nil
}

func redact(u *url.URL) string {
	if u == nil {
		return "-"
	}
	return u.Redacted()
}
