package backendtypes

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
)

// Configuration defaults
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5000
	DefaultVersion         = "1.0.0"
	DefaultReadTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultLogLevel        = "info"
	DefaultStaticIndex     = "index.html"

	DefaultChatBaseURL     = "http://localhost:1337/v1"
	DefaultChatModel       = "gpt-oss-120b"
	DefaultImageBaseURL    = "http://localhost:1337/v1"
	DefaultImageModel      = "flux"
	DefaultImageSize       = "1024x1024"
	DefaultImageTimeout    = 120 * time.Second
	DefaultResponseTimeout = 60 * time.Second
)

// RelayConfig defines the configuration for the relay server
type RelayConfig struct {
	Server  ServerConfig       `yaml:"server"`
	Logging LoggingConfig      `yaml:"logging"`
	CORS    CORSConfig         `yaml:"cors"`
	Static  StaticConfig       `yaml:"static"`
	Proxy   ProxyConfig        `yaml:"proxy"`
	Chat    CollaboratorConfig `yaml:"chat"`
	Image   CollaboratorConfig `yaml:"image"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Version         string        `yaml:"version"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"` // 0 keeps streams open
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "info" or "debug"
}

type CORSConfig struct {
	Enabled        *bool    `yaml:"enabled"` // unset means enabled
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"` // preflight cache lifetime in seconds
}

// StaticConfig controls single-page frontend serving; an empty Root disables it
type StaticConfig struct {
	Root  string `yaml:"root"`
	Index string `yaml:"index"`
}

// ProxyConfig holds the outbound proxy endpoints (HTTP_PROXY / HTTPS_PROXY / NO_PROXY)
type ProxyConfig struct {
	HTTP    string `yaml:"http"`
	HTTPS   string `yaml:"https"`
	NoProxy string `yaml:"no_proxy"`
}

// CollaboratorConfig configures one outbound OpenAI-compatible endpoint
type CollaboratorConfig struct {
	Name                  string        `yaml:"name"`
	BaseURL               string        `yaml:"base_url"`
	Model                 string        `yaml:"model"`
	APIKey                string        `yaml:"api_key"`
	Size                  string        `yaml:"size,omitempty"` // image only
	RequestsPerMinute     int           `yaml:"requests_per_minute"`
	Timeout               time.Duration `yaml:"timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`
}

// IsEnabled reports whether CORS headers are sent
func (c CORSConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *RelayConfig {
	cfg := &RelayConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig loads and parses a YAML configuration file and applies defaults
func LoadConfig(filename string) (*RelayConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data and applies defaults
func ParseConfig(data []byte) (*RelayConfig, error) {
	var config RelayConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills every unset field with its default
func (c *RelayConfig) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Version == "" {
		c.Server.Version = DefaultVersion
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	if c.Static.Index == "" {
		c.Static.Index = DefaultStaticIndex
	}

	if c.Chat.Name == "" {
		c.Chat.Name = "chat"
	}
	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = DefaultChatBaseURL
	}
	if c.Chat.Model == "" {
		c.Chat.Model = DefaultChatModel
	}
	if c.Chat.ResponseHeaderTimeout == 0 {
		c.Chat.ResponseHeaderTimeout = DefaultResponseTimeout
	}

	if c.Image.Name == "" {
		c.Image.Name = "image"
	}
	if c.Image.BaseURL == "" {
		c.Image.BaseURL = DefaultImageBaseURL
	}
	if c.Image.Model == "" {
		c.Image.Model = DefaultImageModel
	}
	if c.Image.Size == "" {
		c.Image.Size = DefaultImageSize
	}
	if c.Image.Timeout == 0 {
		c.Image.Timeout = DefaultImageTimeout
	}
	if c.Image.ResponseHeaderTimeout == 0 {
		c.Image.ResponseHeaderTimeout = DefaultResponseTimeout
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *RelayConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}

	switch c.Logging.Level {
	case "info", "debug":
	default:
		return fmt.Errorf("logging.level must be \"info\" or \"debug\", got %q", c.Logging.Level)
	}

	if err := validateBaseURL("chat.base_url", c.Chat.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("image.base_url", c.Image.BaseURL); err != nil {
		return err
	}
	if c.Chat.RequestsPerMinute < 0 || c.Image.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	if c.CORS.MaxAge < 0 {
		return fmt.Errorf("cors.max_age must not be negative")
	}

	if _, err := c.ProxyConfig(); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}

	if c.Static.Root != "" {
		info, err := os.Stat(c.Static.Root)
		if err != nil {
			return fmt.Errorf("static.root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("static.root %q is not a directory", c.Static.Root)
		}
	}

	return nil
}

// ProxyConfig parses the proxy section into the immutable outbound proxy selection
func (c *RelayConfig) ProxyConfig() (pkghttp.ProxyConfig, error) {
	return pkghttp.NewProxyConfig(c.Proxy.HTTP, c.Proxy.HTTPS, c.Proxy.NoProxy)
}

// Address returns the listen address in host:port form
func (c *RelayConfig) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// IsDebug reports whether debug logging is enabled
func (c *RelayConfig) IsDebug() bool {
	return c.Logging.Level == "debug"
}

func validateBaseURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, value)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}
