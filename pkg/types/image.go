package types

import "context"

// DefaultImageMIMEType is assumed when a generator does not report one
const DefaultImageMIMEType = "image/png"

// ImageRequest describes a single image generation call
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ImageResult holds the decoded image returned by a generator
type ImageResult struct {
	Data     []byte
	MIMEType string
	Model    string
}

// ImageGenerator issues one synchronous image generation request
type ImageGenerator interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
