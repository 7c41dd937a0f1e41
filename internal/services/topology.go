package services

import (
	"fmt"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"

	"github.com/paulmach/orb"
)

// BuildRoadMap creates a road map from stored topology records.
func BuildRoadMap(topo *ports.Topology) (*domain.RoadMap, error) {
	if topo == nil {
		return nil, fmt.Errorf("build road map: topology is nil")
	}

	m := domain.NewRoadMap()
	for _, rec := range topo.Intersections {
		in := m.CreateIntersection(rec.ID, orb.Point{rec.X, rec.Y})
		in.SpawnWeight = rec.SpawnWeight
	}

	for _, rec := range topo.Roads {
		if _, err := m.CreateRoad(rec.A, rec.B, rec.Length); err != nil {
			return nil, fmt.Errorf("build road map: %w", err)
		}
	}

	return m, nil
}
