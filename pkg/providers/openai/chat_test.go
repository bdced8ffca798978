package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
	"github.com/cecil-the-coder/ai-relay/pkg/ratelimit"
	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

func sseServer(t *testing.T, frames []string, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("X-Ratelimit-Limit-Requests", "100")
		w.Header().Set("X-Ratelimit-Remaining-Requests", "99")
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", f)
			w.(http.Flusher).Flush()
		}
	}))
}

func collect(t *testing.T, stream types.TokenStream) ([]types.TokenEvent, error) {
	t.Helper()
	defer func() { _ = stream.Close() }()

	var events []types.TokenEvent
	for {
		event, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

func TestChatProvider_StreamChat(t *testing.T) {
	var captured ChatCompletionRequest
	var path, accept, auth string

	server := sseServer(t, []string{
		`{"choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	}, func(r *http.Request) {
		path = r.URL.Path
		accept = r.Header.Get("Accept")
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
	})
	defer server.Close()

	tracker := ratelimit.NewTracker()
	client := pkghttp.NewHTTPClient(pkghttp.HTTPClientConfig{BearerToken: "sk-chat"})
	provider := NewChatProvider(ChatConfig{BaseURL: server.URL + "/v1/", Tracker: tracker}, client)

	stream, err := provider.StreamChat(context.Background(), "hi there")
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "text/event-stream", accept)
	assert.Equal(t, "Bearer sk-chat", auth)
	assert.Equal(t, DefaultChatModel, captured.Model)
	assert.True(t, captured.Stream)
	assert.Equal(t, []ChatMessage{{Role: "user", Content: "hi there"}}, captured.Messages)

	require.Len(t, events, 4)
	assert.Equal(t, types.DiagnosticRole, events[0].Diagnostic.Type)
	assert.Equal(t, types.TextFragment("Hel"), events[1])
	assert.Equal(t, types.TextFragment("lo"), events[2])
	assert.Equal(t, types.DiagnosticFinish, events[3].Diagnostic.Type)

	info, ok := tracker.Get(DefaultChatModel)
	require.True(t, ok)
	assert.Equal(t, 99, info.RequestsRemaining)
	assert.Equal(t, DefaultName, info.Provider)
}

func TestChatProvider_AggregatorMetadataOnEveryChunk(t *testing.T) {
	server := sseServer(t, []string{
		`{"provider":"OpenAI","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`{"provider":"OpenAI","choices":[{"index":0,"delta":{"content":"Hello"}}]}`,
		`{"provider":{"name":"OpenAI","model":"gpt-oss-120b"},"choices":[{"index":0,"delta":{"content":" world"}}]}`,
		`{"provider":"OpenAI","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	}, nil)
	defer server.Close()

	stream, err := NewChatProvider(ChatConfig{BaseURL: server.URL}, nil).StreamChat(context.Background(), "hi")
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.NoError(t, err)

	var text []string
	for _, e := range events {
		if e.Kind == types.TokenText {
			text = append(text, e.Text)
		}
	}
	assert.Equal(t, []string{"Hello", " world"}, text)
}

func unstreamedServer(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestChatProvider_UnstreamedResponses(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     string
		wantInvalid bool
	}{
		{
			name:        "json error body",
			contentType: "application/json",
			body:        `{"error":{"message":"model gpt-oss-120b not found"}}`,
			wantErr:     "model gpt-oss-120b not found",
		},
		{
			name:        "string error body",
			contentType: "application/json; charset=utf-8",
			body:        `{"error":"no provider available"}`,
			wantErr:     "no provider available",
		},
		{
			name:        "html page",
			contentType: "text/html",
			body:        "<html>login</html>",
			wantErr:     "expected an event stream, got text/html",
			wantInvalid: true,
		},
		{
			name:        "json without content",
			contentType: "application/json",
			body:        `{"choices":[]}`,
			wantErr:     "without content",
			wantInvalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := unstreamedServer(t, tt.contentType, tt.body)
			_, err := NewChatProvider(ChatConfig{BaseURL: server.URL}, nil).StreamChat(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var perr *types.ProviderError
			require.ErrorAs(t, err, &perr)
			if tt.wantInvalid {
				assert.Equal(t, types.ErrCodeInvalidResponse, perr.Code)
			} else {
				assert.Equal(t, types.ErrCodeProviderError, perr.Code)
			}
		})
	}
}

func TestChatProvider_UnstreamedCompletion(t *testing.T) {
	server := unstreamedServer(t, "application/json",
		`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"Hello there"}}]}`)

	stream, err := NewChatProvider(ChatConfig{BaseURL: server.URL}, nil).StreamChat(context.Background(), "x")
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []types.TokenEvent{types.TextFragment("Hello there")}, events)
}

func TestIsEventStream(t *testing.T) {
	for contentType, want := range map[string]bool{
		"":                                 true,
		"text/event-stream":                true,
		"text/event-stream; charset=utf-8": true,
		"application/json":                 false,
		"text/plain; charset=utf-8":        false,
		"not a / valid ; = media type":     false,
	} {
		header := http.Header{}
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
		assert.Equal(t, want, isEventStream(header), contentType)
	}
}

func TestChatProvider_EndOfBodyWithoutDone(t *testing.T) {
	server := sseServer(t, []string{`{"choices":[{"delta":{"content":"only"}}]}`}, nil)
	defer server.Close()

	provider := NewChatProvider(ChatConfig{BaseURL: server.URL}, nil)
	stream, err := provider.StreamChat(context.Background(), "x")
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []types.TokenEvent{types.TextFragment("only")}, events)
}

func TestChatProvider_ErrorChunk(t *testing.T) {
	server := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"A"}}]}`,
		`{"error":{"message":"model overloaded","type":"server_error"}}`,
		`{"choices":[{"delta":{"content":"never"}}]}`,
	}, nil)
	defer server.Close()

	provider := NewChatProvider(ChatConfig{BaseURL: server.URL, Name: "g4f"}, nil)
	stream, err := provider.StreamChat(context.Background(), "x")
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Contains(t, err.Error(), "[g4f]")
	assert.Equal(t, []types.TokenEvent{types.TextFragment("A")}, events)

	// The stream stays finished after a failure
	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChatProvider_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
	}))
	defer server.Close()

	provider := NewChatProvider(ChatConfig{BaseURL: server.URL}, nil)
	_, err := provider.StreamChat(context.Background(), "x")
	require.Error(t, err)

	var apiErr *pkghttp.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestChatProvider_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	provider := NewChatProvider(ChatConfig{BaseURL: url}, nil)
	_, err := provider.StreamChat(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestChatProvider_LimiterHonoursContext(t *testing.T) {
	provider := NewChatProvider(ChatConfig{BaseURL: "http://127.0.0.1:1", Limiter: ratelimit.NewLimiter(1)}, nil)
	require.True(t, provider.config.Limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := provider.StreamChat(ctx, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestChatProvider_Defaults(t *testing.T) {
	provider := NewChatProvider(ChatConfig{}, nil)
	assert.Equal(t, DefaultName, provider.Name())
	assert.Equal(t, DefaultChatModel, provider.Model())
	assert.Equal(t, DefaultBaseURL, provider.config.BaseURL)
}

func TestParseChunk(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantText string
		wantDiag types.DiagnosticType
		wantErr  string
	}{
		{name: "text", data: `{"choices":[{"delta":{"content":"x"}}]}`, wantText: "x"},
		{name: "whitespace text is still text", data: `{"choices":[{"delta":{"content":" "}}]}`, wantText: " "},
		{name: "role", data: `{"choices":[{"delta":{"role":"assistant","content":""}}]}`, wantDiag: types.DiagnosticRole},
		{name: "finish", data: `{"choices":[{"delta":{},"finish_reason":"length"}]}`, wantDiag: types.DiagnosticFinish},
		{name: "usage", data: `{"choices":[],"usage":{"prompt_tokens":3,"completion_tokens":5,"total_tokens":8}}`, wantDiag: types.DiagnosticUsage},
		{name: "provider object", data: `{"provider":{"name":"PollinationsAI","model":"gpt-oss-120b"}}`, wantDiag: types.DiagnosticProvider},
		{name: "provider string", data: `{"provider":"PollinationsAI"}`, wantDiag: types.DiagnosticProvider},
		{name: "login", data: `{"login_url":"https://example.com/login"}`, wantDiag: types.DiagnosticLogin},
		{name: "provider alongside text", data: `{"provider":"OpenAI","choices":[{"index":0,"delta":{"content":"Hello"}}]}`, wantText: "Hello"},
		{name: "login alongside text", data: `{"login_url":"https://example.com/login","choices":[{"delta":{"content":"hi"}}]}`, wantText: "hi"},
		{name: "provider alongside role", data: `{"provider":"OpenAI","choices":[{"delta":{"role":"assistant"}}]}`, wantDiag: types.DiagnosticRole},
		{name: "provider with empty delta", data: `{"provider":{"name":"PollinationsAI"},"choices":[{"delta":{"content":""}}]}`, wantDiag: types.DiagnosticProvider},
		{name: "malformed", data: `not json`, wantDiag: types.DiagnosticMalformed},
		{name: "empty object", data: `{}`, wantDiag: types.DiagnosticEmpty},
		{name: "null error is ignored", data: `{"error":null}`, wantDiag: types.DiagnosticEmpty},
		{name: "string error", data: `{"error":"quota exhausted"}`, wantErr: "quota exhausted"},
		{name: "object error", data: `{"error":{"message":"bad model"}}`, wantErr: "bad model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := parseChunk("chat", tt.data)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantText != "" {
				assert.Equal(t, types.TokenText, event.Kind)
				assert.Equal(t, tt.wantText, event.Text)
				return
			}
			require.Equal(t, types.TokenDiagnostic, event.Kind)
			assert.Equal(t, tt.wantDiag, event.Diagnostic.Type)
			assert.Equal(t, tt.data, event.Diagnostic.Raw)
		})
	}
}

func TestChatStream_SkipsNonDataLines(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		"event: message",
		"data:{\"choices\":[{\"delta\":{\"content\":\"a\"}}]}",
		"",
		"id: 7",
		"data: [DONE]",
		"",
	}, "\n")
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(body))}

	events, err := collect(t, newChatStream("chat", resp))
	require.NoError(t, err)
	assert.Equal(t, []types.TokenEvent{types.TextFragment("a")}, events)
}
