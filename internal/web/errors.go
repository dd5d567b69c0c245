package web

// errors.go provides unified error responses for the web layer.
//
// Every error is:
//   - Mapped through directory.MapError to a coded user message
//   - Logged with the technical error and request id
//   - Returned as a SCIM error document on /scim routes, or as the
//     code/message/action JSON on admin routes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/scimfile/internal/directory"
	"github.com/JonMunkholm/scimfile/internal/logging"
)

// ErrorResponse is the JSON body of admin API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, directory.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, directory.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, ErrInvalidFilter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// scimTypeFor returns the RFC 7644 scimType for 400 errors.
func scimTypeFor(err error) string {
	if errors.Is(err, ErrInvalidFilter) {
		return "invalidFilter"
	}
	return ""
}

// respondError logs err and writes an error response with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := directory.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Debug("request error", attrs...)
	}

	if isSCIMRequest(r) {
		respondSCIMError(w, err, userMsg, statusCode)
		return
	}
	respondErrorJSON(w, userMsg, statusCode)
}

// respondSCIMError writes a SCIM error document. Client errors carry the
// technical detail, server errors only the user message.
func respondSCIMError(w http.ResponseWriter, err error, msg directory.UserMessage, statusCode int) {
	detail := msg.Message + " (" + msg.Code + ")"
	if statusCode < http.StatusInternalServerError {
		detail = err.Error()
	}
	writeJSONStatus(w, scimContentType, statusCode, scimError{
		Schemas:  []string{schemaError},
		Status:   strconv.Itoa(statusCode),
		ScimType: scimTypeFor(err),
		Detail:   detail,
	})
}

// respondErrorJSON writes the admin JSON error body.
func respondErrorJSON(w http.ResponseWriter, msg directory.UserMessage, statusCode int) {
	writeJSONStatus(w, "application/json", statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// isSCIMRequest reports whether r targets the SCIM API.
func isSCIMRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/scim/")
}

// writeJSONStatus encodes v with the given content type and status.
// Encoding errors are logged since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, contentType string, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
