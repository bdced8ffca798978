package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from a collaborator
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
	RawBody    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// errorEnvelope covers the error shapes seen from OpenAI-compatible servers:
//
//	{"error": {"message": "...", "type": "...", "code": ...}}
//	{"error": "..."}
//	{"detail": "..."}
//	{"message": "..."}
type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type errorObject struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code"`
}

// ParseAPIError turns a failed response body into an *APIError. Bodies that
// are not JSON are used verbatim; an empty body falls back to the status text.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, RawBody: string(body)}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case decodeErrorField(envelope.Error, apiErr):
		case decodeText(envelope.Detail, &apiErr.Message):
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

func decodeErrorField(raw json.RawMessage, apiErr *APIError) bool {
	if decodeText(raw, &apiErr.Message) {
		return true
	}

	var obj errorObject
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil || obj.Message == "" {
		return false
	}
	apiErr.Message = obj.Message
	apiErr.Type = obj.Type
	if !decodeText(obj.Code, &apiErr.Code) && len(obj.Code) > 0 && string(obj.Code) != "null" {
		apiErr.Code = string(obj.Code)
	}
	return true
}

// decodeText reports whether raw is a non-empty JSON string, storing it in dst.
func decodeText(raw json.RawMessage, dst *string) bool {
	if len(raw) == 0 {
		return false
	}
	var text string
	if json.Unmarshal(raw, &text) != nil || text == "" {
		return false
	}
	*dst = text
	return true
}
