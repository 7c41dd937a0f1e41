package handlers

import (
	"log"
	"net/http"
	"traffic-reroute-service/internal/ports"
)

// HealthHandler reports liveness and whether the network lock is usable.
type HealthHandler struct {
	Network ports.NetworkView
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	if h.Network != nil {
		if _, err := h.Network.Snapshot(); err != nil {
			log.Printf("health check failed: %v", err)
			writeError(w, r, http.StatusServiceUnavailable, "network unavailable")
			return
		}
	}

	res := map[string]string{"status": "ok"}
	writeJSON(w, r, http.StatusOK, res)
}
