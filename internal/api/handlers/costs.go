package handlers

import (
	"log"
	"net/http"
	"traffic-reroute-service/internal/api/dto"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
)

type CostHandler struct {
	Costs ports.CostWriter
}

// Put overwrites the dynamic cost of one or both lanes of a road.
// Negative values are clamped to zero by the road map.
func (h *CostHandler) Put(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	var req dto.SetCostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := domain.ParseRoadID(req.Road)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "road must look like <a>-<b>")
		return
	}
	if req.Forward == nil && req.Backward == nil {
		writeError(w, r, http.StatusBadRequest, "forward or backward is required")
		return
	}

	ok, err := h.Costs.SetCost(id, req.Forward, req.Backward)
	if err != nil {
		log.Printf("set cost failed: road=%s err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "road not found")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SetCostResponse{
		Road:     id.String(),
		Forward:  req.Forward,
		Backward: req.Backward,
	})
}
