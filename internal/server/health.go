package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"slices"
	"time"
)

// ChannelLister reports the channels that currently have a handler.
type ChannelLister interface {
	Channels() []string
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string    `json:"status"`
	Channels  []string  `json:"channels"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthRegistrar handles health check endpoints
type HealthRegistrar struct {
	channels ChannelLister
	required []string
}

// NewHealthRegistrar creates a health check registrar that reports degraded
// while any of the required channels has no handler.
func NewHealthRegistrar(channels ChannelLister, required ...string) *HealthRegistrar {
	return &HealthRegistrar{channels: channels, required: required}
}

// RegisterRoutes registers the health check endpoint
func (h *HealthRegistrar) RegisterRoutes(router Router) {
	router.HandleFunc("GET /health", h.healthHandler)
}

// healthHandler handles GET /health requests
func (h *HealthRegistrar) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := h.checkHealth()

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (h *HealthRegistrar) checkHealth() HealthResponse {
	response := HealthResponse{
		Channels:  h.channels.Channels(),
		Timestamp: time.Now(),
		Status:    "healthy",
	}
	if response.Channels == nil {
		response.Channels = []string{}
	}

	for _, name := range h.required {
		if !slices.Contains(response.Channels, name) {
			response.Status = "degraded"
			break
		}
	}

	return response
}

// writeJSON encodes v to a buffer first so that encoding errors can still
// produce a 500 before any header is written.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
