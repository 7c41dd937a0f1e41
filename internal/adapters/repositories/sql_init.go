package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"traffic-reroute-service/internal/ports"
)

// Initialize the database schema. The statements are valid for both Postgres and SQLite.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createIntersectionsQuery := `
	CREATE TABLE IF NOT EXISTS intersections (
		id BIGINT PRIMARY KEY,
		x DOUBLE PRECISION NOT NULL,
		y DOUBLE PRECISION NOT NULL,
		spawn_weight DOUBLE PRECISION NOT NULL DEFAULT 1
	);
	`

	createRoadsQuery := `
	CREATE TABLE IF NOT EXISTS roads (
		a BIGINT NOT NULL REFERENCES intersections(id) ON DELETE CASCADE,
		b BIGINT NOT NULL REFERENCES intersections(id) ON DELETE CASCADE,
		length DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (a, b)
	);
	`

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS simulation_runs (
		run_id UUID PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		ticks BIGINT NOT NULL,
		completed BIGINT NOT NULL,
		vehicles_on_road BIGINT NOT NULL,
		avg_flux DOUBLE PRECISION NOT NULL,
		avg_velocity DOUBLE PRECISION NOT NULL,
		finished BOOLEAN NOT NULL
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		src BIGINT NOT NULL,
		dst BIGINT NOT NULL,
		cost DOUBLE PRECISION NOT NULL,
		road_a BIGINT,
		road_b BIGINT,
		PRIMARY KEY (src, dst)
	);
	`

	statements := []string{
		createIntersectionsQuery,
		createRoadsQuery,
		createRunsQuery,
		createRouteCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the database with a network topology, replacing rows with the same keys.
func SeedTopology(db *sql.DB, topo *ports.Topology) error {
	if db == nil {
		return errors.New("seed topology: DB is nil")
	}
	if topo == nil {
		return errors.New("seed topology: topology is nil")
	}

	seen := make(map[int64]struct{}, len(topo.Intersections))
	for i, in := range topo.Intersections {
		if _, dup := seen[int64(in.ID)]; dup {
			return fmt.Errorf("seed topology: duplicate intersection id=%d at index %d", in.ID, i+1)
		}
		seen[int64(in.ID)] = struct{}{}
	}
	for i, r := range topo.Roads {
		_, okA := seen[int64(r.A)]
		_, okB := seen[int64(r.B)]
		if !okA || !okB {
			return fmt.Errorf("seed topology: road %d-%d at index %d references an unknown intersection", r.A, r.B, i+1)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed topology: begin tx: %w", err)
	}
	defer tx.Rollback()

	intersectionStmt, err := tx.Prepare(`
	INSERT INTO intersections (id, x, y, spawn_weight)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE
	SET x = EXCLUDED.x,
		y = EXCLUDED.y,
		spawn_weight = EXCLUDED.spawn_weight;
	`)
	if err != nil {
		return fmt.Errorf("seed topology: prepare intersection insert: %w", err)
	}
	defer intersectionStmt.Close()

	for _, in := range topo.Intersections {
		if _, err := intersectionStmt.Exec(int64(in.ID), in.X, in.Y, in.SpawnWeight); err != nil {
			return fmt.Errorf("seed topology: insert intersection id=%d: %w", in.ID, err)
		}
	}

	roadStmt, err := tx.Prepare(`
	INSERT INTO roads (a, b, length)
	VALUES ($1, $2, $3)
	ON CONFLICT (a, b) DO UPDATE
	SET length = EXCLUDED.length;
	`)
	if err != nil {
		return fmt.Errorf("seed topology: prepare road insert: %w", err)
	}
	defer roadStmt.Close()

	for _, r := range topo.Roads {
		if _, err := roadStmt.Exec(int64(r.A), int64(r.B), r.Length); err != nil {
			return fmt.Errorf("seed topology: insert road %d-%d: %w", r.A, r.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed topology: commit tx: %w", err)
	}

	return nil
}
