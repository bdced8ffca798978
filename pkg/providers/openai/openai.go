// Package openai implements the chat and image collaborators against
// OpenAI-compatible HTTP endpoints: streaming chat completions and
// base64 image generations.
package openai

import (
	"encoding/json"
	"strings"
)

// Defaults for OpenAI-compatible collaborators
const (
	DefaultBaseURL    = "http://localhost:1337/v1"
	DefaultChatModel  = "gpt-oss-120b"
	DefaultImageModel = "flux"
	DefaultImageSize  = "1024x1024"
	DefaultName       = "openai"
)

// ChatCompletionRequest represents a request to the chat completions API
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// ChatMessage represents a single message in a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamResponse represents one streamed chat completion chunk.
// Fields beyond the OpenAI schema are sent by aggregation endpoints.
type StreamResponse struct {
	ID       string          `json:"id,omitempty"`
	Model    string          `json:"model,omitempty"`
	Choices  []StreamChoice  `json:"choices"`
	Usage    *Usage          `json:"usage,omitempty"`
	Error    json.RawMessage `json:"error,omitempty"`
	Provider json.RawMessage `json:"provider,omitempty"`
	LoginURL string          `json:"login_url,omitempty"`
}

// ChatCompletionResponse is a non-streamed chat completion, or an error body,
// returned by servers that ignore "stream": true.
type ChatCompletionResponse struct {
	ID      string             `json:"id,omitempty"`
	Choices []CompletionChoice `json:"choices"`
	Error   json.RawMessage    `json:"error,omitempty"`
}

// CompletionChoice is one choice of a non-streamed completion
type CompletionChoice struct {
	Index   int         `json:"index"`
	Message ChatMessage `json:"message"`
}

// StreamChoice represents a choice in the streaming response
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Delta represents the delta content in a streaming response
type Delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorBody represents an error object in a response
type ErrorBody struct {
	Message string      `json:"message"`
	Type    string      `json:"type,omitempty"`
	Code    interface{} `json:"code,omitempty"`
}

// ImageGenerationRequest represents a request to the image generations API
type ImageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

// ImageGenerationResponse represents the response from the image generations API
type ImageGenerationResponse struct {
	Created int64       `json:"created,omitempty"`
	Data    []ImageData `json:"data"`
}

// ImageData represents one generated image
type ImageData struct {
	B64JSON       string `json:"b64_json,omitempty"`
	URL           string `json:"url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// errorMessage extracts a message from an "error" field that may be either a
// string or an object with a message.
func errorMessage(raw json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}

	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message, true
	}
	return trimmed, true
}

// endpoint joins a base URL and a path without doubling slashes
func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
