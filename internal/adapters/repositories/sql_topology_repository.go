package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/platform/obs"
	"traffic-reroute-service/internal/ports"
)

// SQL-backed implementation of the TopologyRepository port.
type SQLTopologyRepository struct{ DB *sql.DB }

func NewSQLTopologyRepository(db *sql.DB) *SQLTopologyRepository {
	return &SQLTopologyRepository{DB: db}
}

// Return every intersection and road, ordered by key.
func (s *SQLTopologyRepository) LoadTopology(ctx context.Context) (_ *ports.Topology, err error) {
	defer obs.Time(ctx, "topology.Load")(&err)

	if s.DB == nil {
		return nil, errors.New("sql topology repository: DB is nil")
	}

	topo := &ports.Topology{}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT id, x, y, spawn_weight
	FROM intersections
	ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("load topology: query intersections table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var rec ports.IntersectionRecord
		if err := rows.Scan(&id, &rec.X, &rec.Y, &rec.SpawnWeight); err != nil {
			return nil, fmt.Errorf("load topology: scan intersection row: %w", err)
		}
		rec.ID = domain.IntersectionID(id)
		topo.Intersections = append(topo.Intersections, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load topology: intersection row iteration: %w", err)
	}

	roadRows, err := s.DB.QueryContext(ctx, `
	SELECT a, b, length
	FROM roads
	ORDER BY a, b;
	`)
	if err != nil {
		return nil, fmt.Errorf("load topology: query roads table: %w", err)
	}
	defer roadRows.Close()

	for roadRows.Next() {
		var a, b int64
		var length float64
		if err := roadRows.Scan(&a, &b, &length); err != nil {
			return nil, fmt.Errorf("load topology: scan road row: %w", err)
		}
		topo.Roads = append(topo.Roads, ports.RoadRecord{
			A:      domain.IntersectionID(a),
			B:      domain.IntersectionID(b),
			Length: length,
		})
	}
	if err := roadRows.Err(); err != nil {
		return nil, fmt.Errorf("load topology: road row iteration: %w", err)
	}

	return topo, nil
}
