package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
	"github.com/cecil-the-coder/ai-relay/pkg/ratelimit"
	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

// ImageConfig configures an ImageGenerator
type ImageConfig struct {
	Name    string
	BaseURL string
	Model   string
	Size    string

	// Limiter paces outbound requests; nil means unlimited
	Limiter *ratelimit.Limiter
	// Tracker records rate limit headers from responses; may be nil
	Tracker *ratelimit.Tracker
}

// ImageGenerator requests base64 images from an OpenAI-compatible endpoint
type ImageGenerator struct {
	config ImageConfig
	client *pkghttp.HTTPClient
	parser ratelimit.Parser
}

// NewImageGenerator creates an image collaborator. A nil client gets a default one.
func NewImageGenerator(config ImageConfig, client *pkghttp.HTTPClient) *ImageGenerator {
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultImageModel
	}
	if config.Size == "" {
		config.Size = DefaultImageSize
	}
	if client == nil {
		client = pkghttp.NewHTTPClient(pkghttp.HTTPClientConfig{})
	}

	return &ImageGenerator{
		config: config,
		client: client,
		parser: ratelimit.NewHeaderParser(config.Name),
	}
}

// Name returns the collaborator name
func (g *ImageGenerator) Name() string {
	return g.config.Name
}

// Model returns the model requested from the endpoint
func (g *ImageGenerator) Model() string {
	return g.config.Model
}

// GenerateImage issues one generation request and decodes the first image.
func (g *ImageGenerator) GenerateImage(ctx context.Context, request types.ImageRequest) (*types.ImageResult, error) {
	if err := g.config.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	requestData := ImageGenerationRequest{
		Model:          g.config.Model,
		Prompt:         request.Prompt,
		N:              1,
		Size:           g.config.Size,
		ResponseFormat: "b64_json",
	}

	url := endpoint(g.config.BaseURL, "/images/generations")
	req, err := pkghttp.NewJSONRequest(ctx, http.MethodPost, url, requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, resp, err := g.client.DoBody(req)
	if err != nil {
		return nil, types.NewNetworkError(g.config.Name, err).WithOperation("image_generation")
	}

	if info, _ := g.parser.Parse(resp.Header, g.config.Model); info != nil {
		g.config.Tracker.Update(info)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, pkghttp.ParseAPIError(resp.StatusCode, body)
	}

	var response ImageGenerationResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, types.NewInvalidResponseError(g.config.Name, "failed to parse image response", err).
			WithOperation("image_generation")
	}
	if len(response.Data) == 0 || strings.TrimSpace(response.Data[0].B64JSON) == "" {
		return nil, types.NewInvalidResponseError(g.config.Name, "no image in response", nil).
			WithOperation("image_generation")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(response.Data[0].B64JSON))
	if err != nil {
		return nil, types.NewInvalidResponseError(g.config.Name, "invalid base64 image", err).
			WithOperation("image_generation")
	}

	return &types.ImageResult{
		Data:     data,
		MIMEType: types.DefaultImageMIMEType,
		Model:    g.config.Model,
	}, nil
}
