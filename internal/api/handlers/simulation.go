package handlers

import (
	"log"
	"net/http"
	"traffic-reroute-service/internal/api/dto"
	"traffic-reroute-service/internal/ports"
)

// SimulationHandler exposes read-only views of a running simulation.
type SimulationHandler struct {
	Sim ports.SimulationView
}

func (h *SimulationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	s, err := h.Sim.Stats()
	if err != nil {
		log.Printf("read stats failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.StatsResponse{
		Ticks:          s.Ticks,
		CompletedCount: s.CompletedCount,
		VehiclesOnRoad: s.VehiclesOnRoad,
		AvgFlux:        s.AvgFlux,
		AvgVelocity:    s.AvgVelocity,
	})
}

func (h *SimulationHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	vehicles, err := h.Sim.Vehicles()
	if err != nil {
		log.Printf("list vehicles failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListVehiclesResponse{
		Vehicles: make([]dto.VehicleResponse, 0, len(vehicles)),
	}
	for _, v := range vehicles {
		var lane *string
		if v.Lane != nil {
			s := v.Lane.String()
			lane = &s
		}
		res.Vehicles = append(res.Vehicles, dto.VehicleResponse{
			ID:          uint32(v.ID),
			State:       v.State.String(),
			Lane:        lane,
			Pos:         v.Pos,
			Vel:         v.Vel,
			MaxVel:      v.MaxVel,
			Origin:      uint32(v.Origin),
			Destination: uint32(v.Destination),
			Distance:    v.Distance,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
