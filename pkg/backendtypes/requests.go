package backendtypes

// ChatRequest is the body of POST /api/chat and the first WebSocket message
type ChatRequest struct {
	Message string `json:"message"`
}

// ImageRequest is the body of POST /api/image
type ImageRequest struct {
	Prompt string `json:"prompt"`
}
