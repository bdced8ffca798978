package openai

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

// chatStream reads an SSE chat completion body one event at a time
type chatStream struct {
	provider string
	response *http.Response
	reader   *bufio.Reader
	done     bool
	mutex    sync.Mutex
}

func newChatStream(provider string, response *http.Response) *chatStream {
	return &chatStream{
		provider: provider,
		response: response,
		reader:   bufio.NewReader(response.Body),
	}
}

// Next returns the next token event. It returns io.EOF after the [DONE] marker
// or at the end of the body.
func (s *chatStream) Next() (types.TokenEvent, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.done {
		return types.TokenEvent{}, io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			s.done = true
			if err == io.EOF {
				return types.TokenEvent{}, io.EOF
			}
			return types.TokenEvent{}, types.NewNetworkError(s.provider, err).WithOperation("chat_stream")
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			// Blank separators, comments and event/id fields carry nothing for us
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return types.TokenEvent{}, io.EOF
		}

		event, perr := parseChunk(s.provider, data)
		if perr != nil {
			s.done = true
			return types.TokenEvent{}, perr
		}
		return event, nil
	}
}

// Close releases the response body
func (s *chatStream) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.done = true
	if s.response != nil {
		return s.response.Body.Close()
	}
	return nil
}

// parseChunk classifies one data payload. An error object fails the stream and
// a non-empty text delta is a text fragment, whatever metadata rides along with
// it. Everything else is a diagnostic.
func parseChunk(provider, data string) (types.TokenEvent, error) {
	var chunk StreamResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return diagnostic(types.DiagnosticMalformed, nil, data), nil
	}

	if message, ok := errorMessage(chunk.Error); ok {
		return types.TokenEvent{}, types.NewProviderError(provider, types.ErrCodeProviderError, message, nil).
			WithOperation("chat_stream")
	}

	var choice *StreamChoice
	if len(chunk.Choices) > 0 {
		choice = &chunk.Choices[0]
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			return types.TextFragment(*choice.Delta.Content), nil
		}
	}

	if chunk.LoginURL != "" {
		return diagnostic(types.DiagnosticLogin, map[string]interface{}{"login_url": chunk.LoginURL}, data), nil
	}

	if choice != nil {
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			return diagnostic(types.DiagnosticFinish, map[string]interface{}{"finish_reason": *choice.FinishReason}, data), nil
		}
		if choice.Delta.Role != "" {
			return diagnostic(types.DiagnosticRole, map[string]interface{}{"role": choice.Delta.Role}, data), nil
		}
	}

	if len(chunk.Provider) > 0 && string(chunk.Provider) != "null" {
		var info map[string]interface{}
		if err := json.Unmarshal(chunk.Provider, &info); err != nil {
			info = map[string]interface{}{"provider": strings.Trim(string(chunk.Provider), `"`)}
		}
		return diagnostic(types.DiagnosticProvider, info, data), nil
	}

	if chunk.Usage != nil {
		return diagnostic(types.DiagnosticUsage, map[string]interface{}{
			"prompt_tokens":     chunk.Usage.PromptTokens,
			"completion_tokens": chunk.Usage.CompletionTokens,
			"total_tokens":      chunk.Usage.TotalTokens,
		}, data), nil
	}

	return diagnostic(types.DiagnosticEmpty, nil, data), nil
}

func diagnostic(kind types.DiagnosticType, data map[string]interface{}, raw string) types.TokenEvent {
	return types.DiagnosticEvent(types.Diagnostic{Type: kind, Data: data, Raw: raw})
}

// replayStream yields a fixed list of events, then io.EOF
type replayStream struct {
	events []types.TokenEvent
	closed bool
}

func (s *replayStream) Next() (types.TokenEvent, error) {
	if s.closed || len(s.events) == 0 {
		return types.TokenEvent{}, io.EOF
	}
	event := s.events[0]
	s.events = s.events[1:]
	return event, nil
}

func (s *replayStream) Close() error {
	s.closed = true
	return nil
}
