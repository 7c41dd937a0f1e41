package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/platform/obs"
	"traffic-reroute-service/internal/ports"
)

// SQLRouteCache is a SQL-backed cache for (source, destination) routing decisions.
// It survives restarts, which makes it useful for inspecting the decisions of a run.
type SQLRouteCache struct {
	DB *sql.DB
}

func NewSQLRouteCache(db *sql.DB) *SQLRouteCache {
	return &SQLRouteCache{DB: db}
}

// Fetch the cached decision for one pair.
func (s *SQLRouteCache) Get(
	ctx context.Context,
	src, dst domain.IntersectionID,
) (_ ports.CachedRoute, _ bool, err error) {
	if s.DB == nil {
		return ports.CachedRoute{}, false, errors.New("route cache: db is nil")
	}

	q := `
	SELECT cost, road_a, road_b
	FROM route_cache
	WHERE src = $1
		AND dst = $2;
	`

	var (
		cost         float64
		roadA, roadB sql.NullInt64
	)
	err = s.DB.QueryRowContext(ctx, q, int64(src), int64(dst)).Scan(&cost, &roadA, &roadB)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.CachedRoute{}, false, nil
	}
	if err != nil {
		return ports.CachedRoute{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	route := ports.CachedRoute{Cost: cost}
	if roadA.Valid && roadB.Valid {
		route.Road = &domain.RoadID{
			A: domain.IntersectionID(roadA.Int64),
			B: domain.IntersectionID(roadB.Int64),
		}
	}
	return route, true, nil
}

// Store or replace the decision for one pair.
func (s *SQLRouteCache) Put(
	ctx context.Context,
	src, dst domain.IntersectionID,
	route ports.CachedRoute,
) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	var roadA, roadB sql.NullInt64
	if route.Road != nil {
		roadA = sql.NullInt64{Int64: int64(route.Road.A), Valid: true}
		roadB = sql.NullInt64{Int64: int64(route.Road.B), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO route_cache (src, dst, cost, road_a, road_b)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (src, dst) DO UPDATE
	SET cost = EXCLUDED.cost,
		road_a = EXCLUDED.road_a,
		road_b = EXCLUDED.road_b;
	`, int64(src), int64(dst), route.Cost, roadA, roadB)
	if err != nil {
		return fmt.Errorf("insert route cache src=%d dst=%d: %w", src, dst, err)
	}

	return nil
}

// Drop every cached decision.
func (s *SQLRouteCache) Flush(ctx context.Context) (err error) {
	defer obs.Time(ctx, "route.cache.sql.Flush")(&err)

	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache;`); err != nil {
		return fmt.Errorf("flush route cache: %w", err)
	}
	return nil
}
