package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func TestSeedAndLoadTopology(t *testing.T) {
	db := openTestDB(t)

	topo := &ports.Topology{
		Intersections: []ports.IntersectionRecord{
			{ID: 2, X: 10, Y: 0, SpawnWeight: 1},
			{ID: 1, X: 0, Y: 0, SpawnWeight: 0},
		},
		Roads: []ports.RoadRecord{{A: 1, B: 2, Length: 36}},
	}
	if err := SeedTopology(db, topo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// seeding twice replaces rows
	if err := SeedTopology(db, topo); err != nil {
		t.Fatalf("unexpected error on reseed: %v", err)
	}

	got, err := NewSQLTopologyRepository(db).LoadTopology(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Intersections) != 2 {
		t.Fatalf("intersections = %d, want 2", len(got.Intersections))
	}
	if got.Intersections[0].ID != 1 || got.Intersections[1].X != 10 {
		t.Fatalf("unexpected intersections: %+v", got.Intersections)
	}
	if len(got.Roads) != 1 || got.Roads[0] != (ports.RoadRecord{A: 1, B: 2, Length: 36}) {
		t.Fatalf("roads = %+v, want [1-2 36]", got.Roads)
	}
}

func TestSeedTopologyRejectsUnknownEndpoint(t *testing.T) {
	db := openTestDB(t)

	topo := &ports.Topology{
		Intersections: []ports.IntersectionRecord{{ID: 1}},
		Roads:         []ports.RoadRecord{{A: 1, B: 7, Length: 5}},
	}
	if err := SeedTopology(db, topo); err == nil {
		t.Fatalf("expected error for unknown endpoint")
	}
}

func TestSaveRun(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLRunRepository(db)

	run := ports.RunRecord{
		StartedAt: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		Stats: domain.StatsSnapshot{
			Ticks:          1000,
			CompletedCount: 12,
			VehiclesOnRoad: 3,
			AvgFlux:        0.02,
			AvgVelocity:    41.5,
		},
		Completed: true,
	}
	if err := repo.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var n int
	var completed int64
	if err := db.QueryRow(`SELECT COUNT(*), MAX(completed) FROM simulation_runs;`).Scan(&n, &completed); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if n != 1 || completed != 12 {
		t.Fatalf("runs = %d completed = %d, want 1 and 12", n, completed)
	}

	run.RunID = "not-a-uuid"
	if err := repo.SaveRun(context.Background(), run); err == nil {
		t.Fatalf("expected error for invalid run id")
	}
}
