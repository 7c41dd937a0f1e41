package services

import (
	"testing"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
)

// squareTopology is the four-intersection network used across the routing tests.
func squareTopology() *ports.Topology {
	return &ports.Topology{
		Intersections: []ports.IntersectionRecord{
			{ID: 1, X: 0, Y: 0, SpawnWeight: 1},
			{ID: 2, X: 36, Y: 0, SpawnWeight: 1},
			{ID: 3, X: 36, Y: 52, SpawnWeight: 1},
			{ID: 4, X: 0, Y: 50, SpawnWeight: 1},
		},
		Roads: []ports.RoadRecord{
			{A: 1, B: 2, Length: 36},
			{A: 1, B: 4, Length: 50},
			{A: 2, B: 4, Length: 45},
			{A: 2, B: 3, Length: 52},
			{A: 3, B: 4, Length: 40},
		},
	}
}

func newSquareMap(t *testing.T) *domain.RoadMap {
	t.Helper()

	m, err := BuildRoadMap(squareTopology())
	if err != nil {
		t.Fatalf("build road map: %v", err)
	}
	return m
}

func roadPtr(a, b domain.IntersectionID) *domain.RoadID {
	return &domain.RoadID{A: a, B: b}
}
