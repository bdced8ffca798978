package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ssePrefix   = "data: "
	sseDone     = "[DONE]"
	errorPrefix = `{"error"`
)

// ParseSSEFrames returns the payload of every "data: " frame in body, in order.
// Each frame must be terminated by a blank line.
func ParseSSEFrames(t *testing.T, body string) []string {
	t.Helper()
	if body == "" {
		return nil
	}
	require.True(t, strings.HasSuffix(body, "\n\n"), "SSE body must end with a blank line: %q", body)

	raw := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	frames := make([]string, 0, len(raw))
	for _, frame := range raw {
		payload, ok := strings.CutPrefix(frame, ssePrefix)
		require.True(t, ok, "malformed SSE frame: %q", frame)
		frames = append(frames, payload)
	}
	return frames
}

func isTerminal(frame string) bool {
	return frame == sseDone || strings.HasPrefix(frame, errorPrefix)
}

// AssertSingleTerminal checks that frames close with [DONE] or an error object
// and that no earlier frame is terminal.
func AssertSingleTerminal(t *testing.T, frames []string) {
	t.Helper()
	require.NotEmpty(t, frames, "expected at least the terminal frame")

	for i, frame := range frames[:len(frames)-1] {
		assert.False(t, isTerminal(frame), "frame %d is terminal but not last: %v", i, frames)
	}
	assert.True(t, isTerminal(frames[len(frames)-1]), "last frame is not terminal: %v", frames)
}
