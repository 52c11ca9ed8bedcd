// Package response writes HTTP responses. Protocol replies are raw JSON
// arrays and pass through untouched; operational endpoints such as /health
// and HTTP-level failures use a small data/error object.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tcec-chess/livefeed/pkg/errors"
)

// Response is the body of operational endpoints.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes an HTTP-level failure. Code is an upper snake case tag.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes data with status 200.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Data: data})
}

// Problem writes an error object. The message is the status text.
func Problem(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, Response{Error: &Error{
		Code:    code,
		Message: http.StatusText(status),
		Details: details,
	}})
}

// Envelope writes an encoded protocol reply as is.
func Envelope(w http.ResponseWriter, reply []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}

// Text writes a plain text body.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// MethodNotAllowed rejects an HTTP method the endpoint does not serve.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	Problem(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", method+" is not supported here")
}

// RateLimited rejects a caller that spent its request budget.
func RateLimited(w http.ResponseWriter, details string) {
	Problem(w, http.StatusTooManyRequests, "RATE_LIMITED", details)
}

// InternalError hides err from the caller.
func InternalError(w http.ResponseWriter, _ error) {
	Problem(w, http.StatusInternalServerError, "INTERNAL_ERROR", "")
}

// ErrorFromType maps err to a status: oversized bodies get 413, malformed
// input 400, expired contexts 503 and anything else 500.
func ErrorFromType(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		Problem(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
	case errors.IsDecode(err), errors.IsValidationError(err):
		Problem(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.IsTimeout(err), errors.IsCanceled(err):
		Problem(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	default:
		InternalError(w, err)
	}
}
