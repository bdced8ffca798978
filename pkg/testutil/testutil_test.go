package testutil

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

func TestMockChatProvider_ReplaysEvents(t *testing.T) {
	provider := NewMockChatProvider(
		types.TextFragment("Hello"),
		types.DiagnosticEvent(types.Diagnostic{Type: types.DiagnosticRole}),
	)

	stream, err := provider.StreamChat(context.Background(), "hi")
	require.NoError(t, err)

	first, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, types.TokenText, first.Kind)
	assert.Equal(t, "Hello", first.Text)

	second, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, types.TokenDiagnostic, second.Kind)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, 1, provider.GetStreamCallCount())
	assert.Equal(t, "hi", provider.GetLastPrompt())
	assert.Equal(t, 2, provider.LastStream().Pulled())
}

func TestMockChatProvider_Errors(t *testing.T) {
	provider := NewMockChatProviderFromText("a")
	provider.SetNextError(errors.New("boom"))

	stream, err := provider.StreamChat(context.Background(), "x")
	require.NoError(t, err)
	_, _ = stream.Next()
	_, err = stream.Next()
	assert.EqualError(t, err, "boom")

	require.NoError(t, stream.Close())
	assert.True(t, provider.LastStream().IsClosed())

	provider.SetStreamError(errors.New("unreachable"))
	_, err = provider.StreamChat(context.Background(), "x")
	assert.EqualError(t, err, "unreachable")
}

func TestMockChatProvider_BlocksUntilCancelled(t *testing.T) {
	provider := NewMockChatProvider()
	provider.SetBlockAfterEvents(true)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stream, err := provider.StreamChat(ctx, "x")
	require.NoError(t, err)

	_, err = stream.Next()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockImageGenerator(t *testing.T) {
	generator := NewMockImageGenerator([]byte("foo"))

	result, err := generator.GenerateImage(context.Background(), types.ImageRequest{Prompt: "a cat"})
	require.NoError(t, err)
	assert.Equal(t, []byte("foo"), result.Data)
	assert.Equal(t, "a cat", generator.GetLastRequest().Prompt)

	generator.SetError(types.ErrNoImageData)
	_, err = generator.GenerateImage(context.Background(), types.ImageRequest{Prompt: "a dog"})
	assert.ErrorIs(t, err, types.ErrNoImageData)
	assert.Equal(t, 2, generator.GetGenerateCallCount())
}

func TestParseSSEFrames(t *testing.T) {
	frames := ParseSSEFrames(t, "data: {\"content\":\"Hi\"}\n\ndata: [DONE]\n\n")
	assert.Equal(t, []string{`{"content":"Hi"}`, "[DONE]"}, frames)
	AssertSingleTerminal(t, frames)

	assert.Nil(t, ParseSSEFrames(t, ""))
}

func TestAssertSingleTerminal_Error(t *testing.T) {
	AssertSingleTerminal(t, []string{`{"content":"a"}`, `{"error":"boom"}`})
}

func TestAssertStatusCode(t *testing.T) {
	assert.True(t, AssertStatusOK(t, 200))
	assert.Equal(t, "404 Not Found", statusLine(404))
	assert.True(t, AssertStatusCode(t, 204, 204))
}
