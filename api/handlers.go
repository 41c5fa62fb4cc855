package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"hanamikoji-server/config"
	"hanamikoji-server/room"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	Config   *config.Config
	Registry *room.Registry
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, registry *room.Registry) *Handler {
	return &Handler{
		Config:   cfg,
		Registry: registry,
	}
}

// cors sets CORS headers on the response. Call before writing body. Returns
// true when the request was a preflight and is already answered.
func (h *Handler) cors(w http.ResponseWriter, r *http.Request) bool {
	origin := "*"
	if len(h.Config.CORSOrigins) > 0 {
		origin = h.Config.CORSOrigins[0]
		for _, allowed := range h.Config.CORSOrigins {
			if allowed == r.Header.Get("Origin") {
				origin = allowed
				break
			}
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// HealthResponse is the JSON structure for /health.
type HealthResponse struct {
	Status      string   `json:"status"`
	Environment string   `json:"environment"`
	Timestamp   string   `json:"timestamp"`
	Rooms       int      `json:"rooms"`
	CORSOrigins []string `json:"corsOrigins"`
}

// Health reports liveness plus enough configuration to debug a deployment.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.cors(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Status:      "ok",
		Environment: h.Config.Environment,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		CORSOrigins: h.Config.CORSOrigins,
	}
	if h.Registry != nil {
		resp.Rooms = h.Registry.Count()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Encode health response: %v", err)
	}
}
