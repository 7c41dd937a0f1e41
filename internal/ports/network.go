package ports

import "traffic-reroute-service/internal/domain"

// Read access to the shared road network.
type NetworkView interface {
	Snapshot() (domain.NetworkSnapshot, error)
}

// Write access to dynamic road costs. Reports false for an unknown road.
type CostWriter interface {
	SetCost(id domain.RoadID, forward, backward *float64) (bool, error)
}

// Running simulation as seen by readers outside the tick loop.
type SimulationView interface {
	Stats() (domain.StatsSnapshot, error)
	Vehicles() ([]domain.Vehicle, error)
}

// Topology edits that must also evict vehicles from the removed roads.
type TopologyEditor interface {
	DeleteRoad(id domain.RoadID) (bool, error)
	DeleteIntersection(id domain.IntersectionID) (bool, error)
}
