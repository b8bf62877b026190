package web

// errors.go turns service errors into JSON responses.
//
// The status code comes from the error's identity (errors.Is against the
// sentinels of the service, source and core packages). The body comes from
// core.MapError, so clients get a message, a suggested action and a support
// code. The technical error is only logged, together with the request id.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/regmap/internal/core"
	"github.com/JonMunkholm/regmap/internal/export"
	"github.com/JonMunkholm/regmap/internal/logging"
	"github.com/JonMunkholm/regmap/internal/service"
	"github.com/JonMunkholm/regmap/internal/source"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var errInvalidID = errors.New("invalid conversion id")

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrUnknownBackend),
		errors.Is(err, service.ErrConversionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, source.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrNoFile),
		errors.Is(err, source.ErrEmptyFile),
		errors.Is(err, source.ErrInvalidWorkbook),
		errors.Is(err, source.ErrInvalidTables),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNothingExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTooManyConversions),
		errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable && errors.Is(err, service.ErrTooManyConversions) {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
