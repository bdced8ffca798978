package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
)

// maxBodyBytes bounds request bodies read by ParseJSON
const maxBodyBytes = 1 << 20

// SendJSON sends a JSON response with the given status code
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// SendError sends a flat {"error": message} JSON response
func SendError(w http.ResponseWriter, message string, statusCode int) {
	SendJSON(w, statusCode, backendtypes.ErrorResponse{Error: message})
}

// SendMethodNotAllowed rejects a request made with the wrong method
func SendMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// ParseJSON parses JSON from request body into target
func ParseJSON(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}
