package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the single-message error envelope every failing endpoint
// returns.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ListResponse is the envelope for paginated list endpoints.
type ListResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
	Items      any   `json:"items"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope with the given status code.
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, ErrorResponse{Message: message})
}

// NoCache marks a response as uncacheable; required for token responses.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
