package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"svend/internal/log"
	"svend/internal/middleware/trace"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// respondJSON writes payload as JSON with the given status. A nil payload
// sends the status line only.
func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Response encoding failed", log.FieldError, err.Error())
	}
}

// respondError writes the standard error envelope, carrying the request ID
// so clients can quote it back.
func respondError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	respondJSON(ctx, w, status, errorResponse{
		Error:     msg,
		RequestID: trace.GetRequestID(ctx),
	})
}

// methodNotAllowed rejects the request, advertising what the route accepts.
func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// sanitizeInput trims whitespace and strips control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
