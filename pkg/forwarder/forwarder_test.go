package forwarder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/ai-relay/pkg/testutil"
	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

func TestForward_Success(t *testing.T) {
	generator := testutil.NewMockImageGenerator([]byte("foo"))

	url, err := New(generator).Forward(context.Background(), "a red fox")
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,Zm9v", url)
	assert.Equal(t, "a red fox", generator.GetLastRequest().Prompt)
	assert.Equal(t, 1, generator.GetGenerateCallCount())
}

func TestForward_UsesResultMIMEType(t *testing.T) {
	generator := testutil.NewMockImageGenerator(nil)
	generator.SetResult(&types.ImageResult{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"})

	url, err := New(generator).Forward(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", url)
}

func TestForward_EmptyPrompt(t *testing.T) {
	generator := testutil.NewMockImageGenerator([]byte("foo"))

	_, err := New(generator).Forward(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Equal(t, 0, generator.GetGenerateCallCount())
}

func TestForward_EmptyResult(t *testing.T) {
	generator := testutil.NewMockImageGenerator(nil)

	_, err := New(generator).Forward(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoImageData)
	assert.Equal(t, "no image data", ErrorMessage(err))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "transport failure reports the cause",
			err:  types.NewNetworkError("image", errors.New("dial tcp: connection refused")),
			want: "image request failed: dial tcp: connection refused",
		},
		{
			name: "wrapped transport failure",
			err:  fmt.Errorf("generate: %w", types.NewNetworkError("image", errors.New("timeout"))),
			want: "image request failed: timeout",
		},
		{
			name: "malformed response",
			err:  types.NewInvalidResponseError("image", "decode response", errors.New("unexpected EOF")),
			want: "no image data",
		},
		{
			name: "bare sentinel",
			err:  types.ErrNoImageData,
			want: "no image data",
		},
		{
			name: "anything else",
			err:  errors.New("quota exceeded"),
			want: "quota exceeded",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}

func TestForward_PropagatesCollaboratorError(t *testing.T) {
	generator := testutil.NewMockImageGenerator(nil)
	generator.SetError(types.NewNetworkError("image", errors.New("no route to host")))

	_, err := New(generator).Forward(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, "image request failed: no route to host", ErrorMessage(err))
}
