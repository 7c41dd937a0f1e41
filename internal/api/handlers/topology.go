package handlers

import (
	"log"
	"net/http"
	"traffic-reroute-service/internal/api/dto"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
)

// TopologyHandler removes roads and intersections from the live network.
// Vehicles on removed roads are stranded by the editor.
type TopologyHandler struct {
	Editor ports.TopologyEditor
}

// DeleteRoad handles DELETE /roads?id=<a>-<b>.
func (h *TopologyHandler) DeleteRoad(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodDelete) {
		return
	}

	id, err := domain.ParseRoadID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "id must look like <a>-<b>")
		return
	}

	ok, err := h.Editor.DeleteRoad(id)
	if err != nil {
		log.Printf("delete road failed: road=%s err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "road not found")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DeleteResponse{Deleted: id.String()})
}

// DeleteIntersection handles DELETE /intersections?id=<n>.
func (h *TopologyHandler) DeleteIntersection(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodDelete) {
		return
	}

	id, err := parseIntersectionID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.Editor.DeleteIntersection(id)
	if err != nil {
		log.Printf("delete intersection failed: id=%d err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "intersection not found")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DeleteResponse{Deleted: r.URL.Query().Get("id")})
}
