package ports

import (
	"context"
	"time"
	"traffic-reroute-service/internal/domain"
)

// Persisted description of one intersection.
type IntersectionRecord struct {
	ID          domain.IntersectionID
	X           float64
	Y           float64
	SpawnWeight float64
}

// Persisted description of one road.
type RoadRecord struct {
	A      domain.IntersectionID
	B      domain.IntersectionID
	Length float64
}

// Network topology as stored by a repository.
type Topology struct {
	Intersections []IntersectionRecord
	Roads         []RoadRecord
}

// Port: a boundary for loading the road network from a data source.
type TopologyRepository interface {
	LoadTopology(ctx context.Context) (*Topology, error)
}

// Summary of one finished simulator run.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	Stats     domain.StatsSnapshot
	Completed bool
}

// Port: a boundary for storing simulator run summaries.
type RunRepository interface {
	SaveRun(ctx context.Context, run RunRecord) error
}
