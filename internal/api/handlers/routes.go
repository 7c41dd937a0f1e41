package handlers

import (
	"log"
	"math"
	"net/http"
	"strings"
	"traffic-reroute-service/internal/api/dto"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
)

type RouteHandler struct {
	Router ports.Router
}

// Get answers a single next-hop query: GET /route?from=1&to=3[&exclude=1-2].
func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	from, err := parseIntersectionID(q.Get("from"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseIntersectionID(q.Get("to"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	var exclude *domain.RoadID
	if s := strings.TrimSpace(q.Get("exclude")); s != "" {
		id, err := domain.ParseRoadID(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "exclude: invalid road id")
			return
		}
		exclude = &id
	}

	cost, road, err := h.Router.BestNextHop(r.Context(), from, to, exclude)
	if err != nil {
		log.Printf("route query failed: from=%d to=%d err=%v", from, to, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.RouteResponse{
		From:      uint32(from),
		To:        uint32(to),
		Reachable: !math.IsInf(cost, 1),
	}
	if res.Reachable {
		res.Cost = &cost
	}
	if road != nil {
		s := road.String()
		res.Road = &s
	}

	writeJSON(w, r, http.StatusOK, res)
}
