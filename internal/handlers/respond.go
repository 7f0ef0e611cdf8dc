package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/videotube/backend/internal/logging"
)

// envelope is the uniform success body returned by every endpoint.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// errorEnvelope is the uniform failure body. Stack traces are logged
// server-side, never serialized.
type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(ctx, w, status, envelope{StatusCode: status, Message: message, Data: data})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	writeJSON(ctx, w, status, errorEnvelope{StatusCode: status, Message: message, Errors: errs})

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message)
	default:
		logger.Warn("request returned client error", "status", status, "message", message)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
