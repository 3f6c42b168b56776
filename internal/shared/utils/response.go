package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body returned for every error.
// Code is a stable machine-readable kind; Details carries the
// human-readable message and never internal error detail.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, code string, err error) {
	resp := ErrorResponse{Error: code}
	if err != nil {
		resp.Details = err.Error()
	}
	WriteJSON(w, status, resp)
}
