// ABOUTME: Response normalizer mapping failure kinds to HTTP status codes
// ABOUTME: Every handler writes through sendJSON or writeError so bodies stay uniform

package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/2389/robot-gateway/internal/dispatch"
	"github.com/2389/robot-gateway/internal/mapcache"
	"github.com/2389/robot-gateway/internal/schema"
)

// Error codes carried in failure bodies.
const (
	codeMalformed   = "malformed_request"
	codeUnsupported = "unsupported_method"
	codeNotFound    = "not_found"
	codeBackend     = "backend_failure"
	codeUnavailable = "dependency_unavailable"
	codeInternal    = "internal_error"
)

// unavailableMessage is what callers see when no robot is attached.
const unavailableMessage = "Robot is not initialized in app state"

// errNoMapList is returned when the robot reports no map list at all.
var errNoMapList = errors.New("no map list found")

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// classify maps err to a status code and body.
func classify(err error) (int, errorBody) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeMalformed, Field: verr.Field}
	case errors.Is(err, schema.ErrMalformed):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeMalformed}
	case errors.Is(err, schema.ErrUnsupportedMethod):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: codeUnsupported}
	case errors.Is(err, mapcache.ErrMapNotFound), errors.Is(err, errNoMapList):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: codeNotFound}
	case errors.Is(err, dispatch.ErrUnavailable):
		return http.StatusInternalServerError, errorBody{Error: unavailableMessage, Code: codeUnavailable}
	case errors.Is(err, dispatch.ErrBackend):
		return http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeBackend}
	default:
		return http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeInternal}
	}
}

// writeError logs err at warn for client faults and error for server faults,
// then writes the normalized body.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, body := classify(err)

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", body.Code,
		"request_id", requestIDFromContext(r.Context()),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	sendJSON(w, status, body)
}

// sendJSON writes v as a JSON body with the given status.
func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
