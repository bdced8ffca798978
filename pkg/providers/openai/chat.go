package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
	"github.com/cecil-the-coder/ai-relay/pkg/ratelimit"
	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

// ChatConfig configures a ChatProvider
type ChatConfig struct {
	Name    string
	BaseURL string
	Model   string

	// Limiter paces outbound requests; nil means unlimited
	Limiter *ratelimit.Limiter
	// Tracker records rate limit headers from responses; may be nil
	Tracker *ratelimit.Tracker
}

// ChatProvider streams chat completions from an OpenAI-compatible endpoint
type ChatProvider struct {
	config ChatConfig
	client *pkghttp.HTTPClient
	parser ratelimit.Parser
}

// NewChatProvider creates a chat collaborator. A nil client gets a default one.
func NewChatProvider(config ChatConfig, client *pkghttp.HTTPClient) *ChatProvider {
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultChatModel
	}
	if client == nil {
		client = pkghttp.NewHTTPClient(pkghttp.HTTPClientConfig{})
	}

	return &ChatProvider{
		config: config,
		client: client,
		parser: ratelimit.NewHeaderParser(config.Name),
	}
}

// Name returns the collaborator name
func (p *ChatProvider) Name() string {
	return p.config.Name
}

// Model returns the model requested from the endpoint
func (p *ChatProvider) Model() string {
	return p.config.Model
}

// StreamChat sends prompt as a single user message and returns the streamed reply.
// The request is bound to ctx; cancelling it aborts the upstream call.
func (p *ChatProvider) StreamChat(ctx context.Context, prompt string) (types.TokenStream, error) {
	if err := p.config.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	requestData := ChatCompletionRequest{
		Model:    p.config.Model,
		Messages: []ChatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	}

	url := endpoint(p.config.BaseURL, "/chat/completions")
	req, err := pkghttp.NewJSONRequest(ctx, http.MethodPost, url, requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.NewNetworkError(p.config.Name, err).WithOperation("chat_completion")
	}

	if info, _ := p.parser.Parse(resp.Header, p.config.Model); info != nil {
		p.config.Tracker.Update(info)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, pkghttp.ParseAPIError(resp.StatusCode, body)
	}

	if !isEventStream(resp.Header) {
		return p.unstreamed(resp)
	}
	return newChatStream(p.config.Name, resp), nil
}

// maxUnstreamedBody caps how much of a non-SSE 200 body is read
const maxUnstreamedBody = 1 << 20

// isEventStream reports whether the response is SSE. A missing Content-Type is
// accepted since some aggregators omit it on streams.
func isEventStream(header http.Header) bool {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/event-stream"
}

// unstreamed handles a 200 answer that is not an event stream. An error body
// fails the call, a complete (non-streamed) completion is replayed as a single
// fragment and anything else is an invalid response.
func (p *ChatProvider) unstreamed(resp *http.Response) (types.TokenStream, error) {
	defer func() { _ = resp.Body.Close() }()
	contentType := resp.Header.Get("Content-Type")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUnstreamedBody))
	if err != nil {
		return nil, types.NewNetworkError(p.config.Name, err).WithOperation("chat_completion")
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, types.NewInvalidResponseError(p.config.Name,
			fmt.Sprintf("expected an event stream, got %s", contentType), nil).WithOperation("chat_completion")
	}
	if message, ok := errorMessage(completion.Error); ok {
		return nil, types.NewProviderError(p.config.Name, types.ErrCodeProviderError, message, nil).
			WithOperation("chat_completion")
	}
	if len(completion.Choices) > 0 && completion.Choices[0].Message.Content != "" {
		return &replayStream{events: []types.TokenEvent{types.TextFragment(completion.Choices[0].Message.Content)}}, nil
	}
	return nil, types.NewInvalidResponseError(p.config.Name,
		fmt.Sprintf("expected an event stream, got %s without content", contentType), nil).WithOperation("chat_completion")
}
