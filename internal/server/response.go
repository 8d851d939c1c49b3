package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encoding response: %v", err)
	}
}

// writeError writes {"error": msg} with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, jsonError{Error: msg})
}

// handleContextError reports whether err comes from a cancelled
// or expired request context. It writes nothing: after a deadline
// the timeout handler owns the response.
func handleContextError(_ http.ResponseWriter, err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// writeInternalError logs err against the request and answers 500
// unless the request context is already done.
func writeInternalError(
	w http.ResponseWriter, r *http.Request, op string, err error,
) {
	if handleContextError(w, err) {
		return
	}
	log.Printf("%s id=%s: %v", op, requestID(r.Context()), err)
	writeError(w, http.StatusInternalServerError, "internal error: "+err.Error())
}
