// Package httputil holds the JSON envelope shared by every endpoint.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Response is the body of every non-binary response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes a {success, message} envelope.
func Message(w http.ResponseWriter, status int, success bool, message string) {
	JSON(w, status, Response{Success: success, Message: message})
}

// Error writes a failed envelope.
func Error(w http.ResponseWriter, status int, message string) {
	Message(w, status, false, message)
}

// ErrBodyTooLarge is returned by DecodeJSON when the body exceeds the
// limit set by http.MaxBytesReader.
var ErrBodyTooLarge = errors.New("request body too large")

// ErrMalformedBody is returned by DecodeJSON for invalid JSON.
var ErrMalformedBody = errors.New("malformed JSON body")

// DecodeJSON decodes the request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return ErrBodyTooLarge
	}
	return ErrMalformedBody
}

// WriteDecodeError maps a DecodeJSON error to a response.
func WriteDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, "Request body too large.")
		return
	}
	Error(w, http.StatusBadRequest, "Bad Request: malformed JSON body.")
}

// NotFound is a JSON 404 handler for routers.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed is a JSON 405 handler for routers.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
