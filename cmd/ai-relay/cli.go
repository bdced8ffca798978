package main

import (
	"fmt"

	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
)

// CLI holds command line flags. Flags and environment variables override the
// YAML file, which overrides the built-in defaults.
type CLI struct {
	ConfigFile string `name:"config" short:"c" type:"existingfile" env:"RELAY_CONFIG" help:"Path to a YAML configuration file"`

	Host       string `name:"host" env:"HOST" help:"Listen host"`
	Port       int    `name:"port" short:"p" env:"PORT" help:"Listen port"`
	Debug      bool   `name:"debug" env:"DEBUG" help:"Log every relayed fragment"`
	StaticRoot string `name:"static-root" env:"STATIC_ROOT" type:"path" help:"Directory holding the frontend build"`

	Chat  ChatFlags  `embed:"" prefix:"chat-" help:"Chat collaborator"`
	Image ImageFlags `embed:"" prefix:"image-" help:"Image collaborator"`
	Proxy ProxyFlags `embed:"" help:"Outbound proxy"`
}

type ChatFlags struct {
	BaseURL string `name:"base-url" env:"CHAT_BASE_URL" help:"Chat collaborator base URL"`
	APIKey  string `name:"api-key" env:"CHAT_API_KEY" help:"Chat collaborator API key"`
	Model   string `name:"model" env:"CHAT_MODEL" help:"Chat model"`
	RPM     int    `name:"rpm" env:"CHAT_REQUESTS_PER_MINUTE" help:"Outbound chat requests per minute (0 = unlimited)"`
}

type ImageFlags struct {
	BaseURL string `name:"base-url" env:"IMAGE_BASE_URL" help:"Image collaborator base URL"`
	APIKey  string `name:"api-key" env:"IMAGE_API_KEY" help:"Image collaborator API key"`
	Model   string `name:"model" env:"IMAGE_MODEL" help:"Image model"`
	Size    string `name:"size" env:"IMAGE_SIZE" help:"Image size, e.g. 1024x1024"`
	RPM     int    `name:"rpm" env:"IMAGE_REQUESTS_PER_MINUTE" help:"Outbound image requests per minute (0 = unlimited)"`
}

type ProxyFlags struct {
	HTTPProxy  string `name:"http-proxy" env:"HTTP_PROXY" help:"Proxy for http:// collaborators"`
	HTTPSProxy string `name:"https-proxy" env:"HTTPS_PROXY" help:"Proxy for https:// collaborators"`
	NoProxy    string `name:"no-proxy" env:"NO_PROXY" help:"Comma separated hosts reached directly"`
}

// Config loads the YAML file (if any), applies overrides and validates the result
func (c *CLI) Config() (*backendtypes.RelayConfig, error) {
	config := backendtypes.DefaultConfig()
	if c.ConfigFile != "" {
		loaded, err := backendtypes.LoadConfig(c.ConfigFile)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	c.apply(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func (c *CLI) apply(config *backendtypes.RelayConfig) {
	setString(&config.Server.Host, c.Host)
	setInt(&config.Server.Port, c.Port)
	if c.Debug {
		config.Logging.Level = "debug"
	}
	setString(&config.Static.Root, c.StaticRoot)

	setString(&config.Chat.BaseURL, c.Chat.BaseURL)
	setString(&config.Chat.APIKey, c.Chat.APIKey)
	setString(&config.Chat.Model, c.Chat.Model)
	setInt(&config.Chat.RequestsPerMinute, c.Chat.RPM)

	setString(&config.Image.BaseURL, c.Image.BaseURL)
	setString(&config.Image.APIKey, c.Image.APIKey)
	setString(&config.Image.Model, c.Image.Model)
	setString(&config.Image.Size, c.Image.Size)
	setInt(&config.Image.RequestsPerMinute, c.Image.RPM)

	setString(&config.Proxy.HTTP, c.Proxy.HTTPProxy)
	setString(&config.Proxy.HTTPS, c.Proxy.HTTPSProxy)
	setString(&config.Proxy.NoProxy, c.Proxy.NoProxy)
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value int) {
	if value != 0 {
		*dst = value
	}
}
