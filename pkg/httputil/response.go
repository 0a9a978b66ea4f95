package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/CatalogGo/pkg/errors"
	"github.com/utafrali/CatalogGo/pkg/logger"
)

// Envelope status codes. StatusFail marks an operation that failed validly
// (e.g. a lookup miss), as opposed to StatusError for unexpected failures.
const (
	StatusSuccess = 1
	StatusError   = 2
	StatusFail    = 0
)

// Response is the fixed-shape JSON envelope returned by every endpoint.
// ReturnToken echoes the caller's bearer token verbatim; it is never parsed
// or validated here. All fields are always serialized, absent values as null.
type Response struct {
	Status      int     `json:"status"`
	Message     string  `json:"message"`
	Res         bool    `json:"res"`
	ReturnToken *string `json:"return_token"`
	Data        any     `json:"data"`
}

// Success builds a success envelope wrapping the given payload.
func Success(message, token string, data any) Response {
	return Response{
		Status:      StatusSuccess,
		Message:     message,
		Res:         true,
		ReturnToken: tokenOrNil(token),
		Data:        data,
	}
}

// Fail builds a valid-failure envelope (e.g. not found).
func Fail(message, token string) Response {
	return Response{
		Status:      StatusFail,
		Message:     message,
		ReturnToken: tokenOrNil(token),
	}
}

// Error builds an unexpected-error envelope with a caller-safe message.
func Error(message, token string) Response {
	return Response{
		Status:      StatusError,
		Message:     message,
		ReturnToken: tokenOrNil(token),
	}
}

func tokenOrNil(token string) *string {
	if token == "" {
		return nil
	}
	return &token
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps an error onto the envelope and writes it. NotFound becomes
// an HTTP 404 with envelope status 0 (a valid miss); everything else becomes
// the error's HTTP status with envelope status 2 and a generic message.
// Error detail is logged, never echoed to the caller. It prefers the
// request-scoped logger from context over the fallback logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, token string, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status == http.StatusNotFound {
		WriteJSON(w, http.StatusNotFound, Fail(appErr.Message, token))
		return
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		WriteJSON(w, http.StatusNotFound, Fail("resource not found", token))
		return
	}

	status := apperrors.HTTPStatus(err)
	message := "an unexpected error occurred while processing request"
	if errors.Is(err, apperrors.ErrVendorUnavailable) {
		message = "vendor data is temporarily unavailable"
	}

	l.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
	)

	WriteJSON(w, status, Error(message, token))
}
