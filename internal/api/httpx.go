package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// #region json-helpers

// NewRequestID returns a fresh request correlation id.
func NewRequestID() string { return "req_" + uuid.NewString() }

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodes the request body into dst, rejecting unknown fields.
func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// #endregion json-helpers
