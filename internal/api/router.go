package api

import (
	"net/http"
	"traffic-reroute-service/internal/api/handlers"
	"traffic-reroute-service/internal/ports"
)

// Dependencies of the HTTP surface. Sim may be nil when no simulation runs in
// the process; its endpoints are then not registered.
type Deps struct {
	Router  ports.Router
	Network ports.NetworkView
	Costs   ports.CostWriter
	Sim     ports.SimulationView
	Editor  ports.TopologyEditor
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Network: d.Network}
	routes := &handlers.RouteHandler{Router: d.Router}
	costs := &handlers.CostHandler{Costs: d.Costs}
	network := &handlers.NetworkHandler{View: d.Network}

	mux.HandleFunc("/health", health.Get)
	mux.HandleFunc("/route", routes.Get)
	mux.HandleFunc("/costs", costs.Put)
	mux.HandleFunc("/network", network.GeoJSON)

	if d.Sim != nil {
		sim := &handlers.SimulationHandler{Sim: d.Sim}
		mux.HandleFunc("/stats", sim.Stats)
		mux.HandleFunc("/vehicles", sim.Vehicles)
	}
	if d.Editor != nil {
		topo := &handlers.TopologyHandler{Editor: d.Editor}
		mux.HandleFunc("/roads", topo.DeleteRoad)
		mux.HandleFunc("/intersections", topo.DeleteIntersection)
	}

	return requestIDMiddleware(loggingMiddleware(recoverMiddleware(mux)))
}
