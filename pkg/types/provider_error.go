package types

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches network-level failures talking to a collaborator
	ErrTransport = errors.New("transport failure")
	// ErrNoImageData matches image responses without usable image content
	ErrNoImageData = errors.New("no image data")
)

// ErrorCode categorizes provider errors
type ErrorCode string

const (
	// ErrCodeNetwork is a transport failure before or during the response
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeInvalidResponse is a response the relay cannot interpret
	ErrCodeInvalidResponse ErrorCode = "invalid_response"
	// ErrCodeProviderError is a failure the collaborator reported itself
	ErrCodeProviderError ErrorCode = "provider_error"
)

// ProviderError represents a standardized error from a collaborator
type ProviderError struct {
	Code        ErrorCode // Categorized error code
	Message     string    // Human-readable message
	Provider    string    // Which provider generated this error
	Operation   string    // What operation failed (e.g. "chat_completion", "image_generation")
	OriginalErr error     // Wrapped original error
}

// NewProviderError creates a new provider error
func NewProviderError(provider string, code ErrorCode, message string, err error) *ProviderError {
	return &ProviderError{
		Code:        code,
		Message:     message,
		Provider:    provider,
		OriginalErr: err,
	}
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Message
	if e.OriginalErr != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Provider, msg)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// Is maps error codes onto the package sentinels
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Code == ErrCodeNetwork
	case ErrNoImageData:
		return e.Code == ErrCodeInvalidResponse
	}
	return false
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation string) *ProviderError {
	e.Operation = operation
	return e
}

// NewNetworkError wraps a transport failure
func NewNetworkError(provider string, err error) *ProviderError {
	return NewProviderError(provider, ErrCodeNetwork, "request failed", err)
}

// NewInvalidResponseError reports a malformed or empty collaborator response
func NewInvalidResponseError(provider string, message string, err error) *ProviderError {
	return NewProviderError(provider, ErrCodeInvalidResponse, message, err)
}
