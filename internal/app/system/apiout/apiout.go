// Package apiout writes API responses in the envelope the web client
// expects. Errors carry {statusCode, message, error}; message is a string
// for single faults and an array for field validation.
package apiout

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error envelope.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error"`
}

// JSON writes v with the given status. Encoding failures are swallowed;
// the status line is already on the wire.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a single-message error envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{
		StatusCode: status,
		Message:    msg,
		Error:      http.StatusText(status),
	})
}

// Errors writes a multi-message envelope, used for field validation.
func Errors(w http.ResponseWriter, status int, msgs []string) {
	JSON(w, status, ErrorBody{
		StatusCode: status,
		Message:    msgs,
		Error:      http.StatusText(status),
	})
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
