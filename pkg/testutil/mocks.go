// Package testutil provides shared testing utilities and collaborator mocks
// for use across the ai-relay test suite.
package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

// MockChatProvider is a types.ChatProvider with configurable behaviour.
// Each StreamChat call returns a fresh MockTokenStream over the configured events.
type MockChatProvider struct {
	mu sync.RWMutex

	name      string
	events    []types.TokenEvent
	streamErr error
	nextErr   error
	block     bool

	streamCalled int
	lastPrompt   string
	streams      []*MockTokenStream
}

// NewMockChatProvider creates a chat mock that emits the given events then io.EOF.
func NewMockChatProvider(events ...types.TokenEvent) *MockChatProvider {
	return &MockChatProvider{
		name:   "mock-chat",
		events: events,
	}
}

// NewMockChatProviderFromText is a shorthand for a provider emitting text fragments.
func NewMockChatProviderFromText(fragments ...string) *MockChatProvider {
	events := make([]types.TokenEvent, 0, len(fragments))
	for _, f := range fragments {
		events = append(events, types.TextFragment(f))
	}
	return NewMockChatProvider(events...)
}

// SetStreamError makes StreamChat fail immediately with err.
func (m *MockChatProvider) SetStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamErr = err
}

// SetNextError makes the stream return err after the configured events instead of io.EOF.
func (m *MockChatProvider) SetNextError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextErr = err
}

// SetBlockAfterEvents makes the stream block after the configured events until the
// StreamChat context is cancelled, then return the context error.
func (m *MockChatProvider) SetBlockAfterEvents(block bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = block
}

// Name implements types.ChatProvider.
func (m *MockChatProvider) Name() string {
	return m.name
}

// StreamChat implements types.ChatProvider.
func (m *MockChatProvider) StreamChat(ctx context.Context, prompt string) (types.TokenStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.streamCalled++
	m.lastPrompt = prompt
	if m.streamErr != nil {
		return nil, m.streamErr
	}

	stream := &MockTokenStream{
		ctx:    ctx,
		events: append([]types.TokenEvent(nil), m.events...),
		err:    m.nextErr,
		block:  m.block,
	}
	m.streams = append(m.streams, stream)
	return stream, nil
}

// GetStreamCallCount returns the number of times StreamChat was called.
func (m *MockChatProvider) GetStreamCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.streamCalled
}

// GetLastPrompt returns the prompt of the most recent StreamChat call.
func (m *MockChatProvider) GetLastPrompt() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPrompt
}

// LastStream returns the stream handed out by the most recent StreamChat call.
func (m *MockChatProvider) LastStream() *MockTokenStream {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

// MockTokenStream replays a fixed list of events.
type MockTokenStream struct {
	mu     sync.Mutex
	ctx    context.Context
	events []types.TokenEvent
	index  int
	err    error
	block  bool
	closed bool
	pulled int
}

// Next implements types.TokenStream.
func (s *MockTokenStream) Next() (types.TokenEvent, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.TokenEvent{}, io.EOF
	}
	if s.index < len(s.events) {
		event := s.events[s.index]
		s.index++
		s.pulled++
		s.mu.Unlock()
		return event, nil
	}
	block, err := s.block, s.err
	s.mu.Unlock()

	if block {
		<-s.ctx.Done()
		return types.TokenEvent{}, s.ctx.Err()
	}
	if err != nil {
		return types.TokenEvent{}, err
	}
	return types.TokenEvent{}, io.EOF
}

// Close implements types.TokenStream.
func (s *MockTokenStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (s *MockTokenStream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pulled returns the number of events handed out by Next.
func (s *MockTokenStream) Pulled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulled
}

// MockImageGenerator is a types.ImageGenerator returning a configured result or error.
type MockImageGenerator struct {
	mu sync.RWMutex

	name   string
	result *types.ImageResult
	err    error

	generateCalled int
	lastRequest    types.ImageRequest
}

// NewMockImageGenerator creates an image mock returning data as a PNG.
func NewMockImageGenerator(data []byte) *MockImageGenerator {
	return &MockImageGenerator{
		name: "mock-image",
		result: &types.ImageResult{
			Data:     data,
			MIMEType: types.DefaultImageMIMEType,
			Model:    "mock-image-model",
		},
	}
}

// SetResult replaces the result returned by GenerateImage.
func (m *MockImageGenerator) SetResult(result *types.ImageResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
}

// SetError makes GenerateImage fail with err.
func (m *MockImageGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Name implements types.ImageGenerator.
func (m *MockImageGenerator) Name() string {
	return m.name
}

// GenerateImage implements types.ImageGenerator.
func (m *MockImageGenerator) GenerateImage(ctx context.Context, req types.ImageRequest) (*types.ImageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generateCalled++
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// GetGenerateCallCount returns the number of times GenerateImage was called.
func (m *MockImageGenerator) GetGenerateCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generateCalled
}

// GetLastRequest returns the request of the most recent GenerateImage call.
func (m *MockImageGenerator) GetLastRequest() types.ImageRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequest
}
