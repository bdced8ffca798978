// Package forwarder is a synchronous pass-through to an image generation collaborator.
// It turns the returned image bytes into a base64 data URL for the browser frontend.
package forwarder

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"

	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

// ErrEmptyPrompt is returned before any collaborator call when the prompt is blank.
var ErrEmptyPrompt = errors.New("forwarder: empty prompt")

// Forwarder issues one image generation request per Forward call.
type Forwarder struct {
	generator types.ImageGenerator
	logger    *log.Logger
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the logger used for failure output.
func WithLogger(logger *log.Logger) Option {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Forwarder over the given collaborator.
func New(generator types.ImageGenerator, opts ...Option) *Forwarder {
	f := &Forwarder{
		generator: generator,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward generates an image for prompt and returns it as a data URL.
func (f *Forwarder) Forward(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	result, err := f.generator.GenerateImage(ctx, types.ImageRequest{Prompt: prompt})
	if err == nil && (result == nil || len(result.Data) == 0) {
		err = types.NewInvalidResponseError(f.generator.Name(), "empty image", nil)
	}
	if err != nil {
		f.logger.Printf("[ERROR] image generation via %s failed: %v", f.generator.Name(), err)
		return "", err
	}

	return DataURL(result.MIMEType, result.Data), nil
}

// DataURL encodes data as "data:<mime>;base64,<payload>" using standard base64.
// An empty mimeType defaults to types.DefaultImageMIMEType.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = types.DefaultImageMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ErrorMessage maps a Forward failure to the message reported to the client:
// transport failures as "image request failed: <cause>", missing or malformed
// image content as "no image data", anything else as the error's own message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, types.ErrTransport) {
		cause := err
		var perr *types.ProviderError
		if errors.As(err, &perr) && perr.OriginalErr != nil {
			cause = perr.OriginalErr
		}
		return "image request failed: " + cause.Error()
	}
	if errors.Is(err, types.ErrNoImageData) {
		return types.ErrNoImageData.Error()
	}
	return err.Error()
}
