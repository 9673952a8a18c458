package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every API response.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func writeData[T any](w http.ResponseWriter, status int, message string, data T) {
	_ = writeJSON(w, status, &Response[T]{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, &ErrorResponse{Error: message})
}
