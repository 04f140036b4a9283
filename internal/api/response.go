package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// envelope is the uniform response wrapper. Every endpoint, success or
// failure, reports the resource path, the handling duration and a UTC
// timestamp alongside its payload.
type envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Resource  string    `json:"resource"`
	Duration  string    `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, message string, data any, start time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{
		Success:   code < 400,
		Message:   message,
		Data:      data,
		Resource:  r.URL.Path,
		Duration:  fmt.Sprintf("%.3fms", float64(time.Since(start).Microseconds())/1000),
		Timestamp: time.Now().UTC(),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, code int, message string, start time.Time) {
	writeJSON(w, r, code, message, nil, start)
}

// decodeJSON reads a request body into dst, rejecting unknown fields and
// oversized bodies.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
