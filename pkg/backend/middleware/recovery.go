package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"
)

type errorBody struct {
	Error string `json:"error"`
}

// Recovery turns a handler panic into a 500 {"error": ...} response. When the
// response has already started (an event stream mid-flight) the connection is
// aborted instead, since a JSON body can no longer be delivered.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracked := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log.Printf("[%s] PANIC: %s %s: %v\n%s", GetRequestID(r.Context()), r.Method, r.URL.Path, rec, debug.Stack())

			if tracked.wroteHeader {
				panic(http.ErrAbortHandler)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(errorBody{Error: "An internal error occurred"})
		}()

		next.ServeHTTP(tracked, r)
	})
}
