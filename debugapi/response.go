package debugapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the envelope every JSON debugapi endpoint returns, grounded
// on the teacher's pkg/api/response.go Response.
type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// JSON writes data as a Response envelope with the given HTTP status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := Response{
		Status:    http.StatusText(status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// JSONError writes an error Response envelope.
func JSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := Response{
		Status:    http.StatusText(status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     err.Error(),
	}
	_ = json.NewEncoder(w).Encode(resp)
}
