package main

import (
	"fmt"
	"log"

	"github.com/cecil-the-coder/ai-relay/pkg/backend"
	"github.com/cecil-the-coder/ai-relay/pkg/backend/handlers"
	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
	"github.com/cecil-the-coder/ai-relay/pkg/providers/openai"
	"github.com/cecil-the-coder/ai-relay/pkg/ratelimit"
)

// BuildServer wires both collaborators and the HTTP server from config
func BuildServer(config *backendtypes.RelayConfig) (*backend.Server, error) {
	proxy, err := config.ProxyConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid proxy configuration: %w", err)
	}

	// Streams are bounded by the client connection, not a total timeout
	chatClient := pkghttp.NewHTTPClient(pkghttp.HTTPClientConfig{
		ResponseHeaderTimeout: config.Chat.ResponseHeaderTimeout,
		BearerToken:           config.Chat.APIKey,
		Proxy:                 proxy,
	})
	chatTracker := ratelimit.NewTracker()
	chatLimiter := ratelimit.NewLimiter(config.Chat.RequestsPerMinute)
	chat := openai.NewChatProvider(openai.ChatConfig{
		Name:    config.Chat.Name,
		BaseURL: config.Chat.BaseURL,
		Model:   config.Chat.Model,
		Limiter: chatLimiter,
		Tracker: chatTracker,
	}, chatClient)

	imageClient := pkghttp.NewHTTPClient(pkghttp.HTTPClientConfig{
		Timeout:               config.Image.Timeout,
		ResponseHeaderTimeout: config.Image.ResponseHeaderTimeout,
		BearerToken:           config.Image.APIKey,
		Proxy:                 proxy,
	})
	imageTracker := ratelimit.NewTracker()
	imageLimiter := ratelimit.NewLimiter(config.Image.RequestsPerMinute)
	image := openai.NewImageGenerator(openai.ImageConfig{
		Name:    config.Image.Name,
		BaseURL: config.Image.BaseURL,
		Model:   config.Image.Model,
		Size:    config.Image.Size,
		Limiter: imageLimiter,
		Tracker: imageTracker,
	}, imageClient)

	if proxy.Enabled() {
		log.Printf("Routing collaborator traffic through proxy: %s", proxy)
	}
	for _, c := range []backendtypes.CollaboratorConfig{config.Chat, config.Image} {
		if c.APIKey == "" {
			log.Printf("Warning: no API key for %s collaborator, requests to %s are unauthenticated", c.Name, c.BaseURL)
		}
	}

	return backend.NewServer(config, backend.Dependencies{
		Chat:  chat,
		Image: image,
		Collaborators: map[string]handlers.Collaborator{
			"chat": {
				Name:    chat.Name(),
				Model:   chat.Model(),
				BaseURL: config.Chat.BaseURL,
				Client:  chatClient,
				Tracker: chatTracker,
				Limiter: chatLimiter,
			},
			"image": {
				Name:    image.Name(),
				Model:   image.Model(),
				BaseURL: config.Image.BaseURL,
				Client:  imageClient,
				Tracker: imageTracker,
				Limiter: imageLimiter,
			},
		},
		Proxy: proxy,
	}), nil
}
