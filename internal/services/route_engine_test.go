package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"traffic-reroute-service/internal/adapters/cache"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"

	"github.com/paulmach/orb"
)

func TestFlushThreshold(t *testing.T) {
	cases := []struct {
		scale float64
		want  int
	}{
		{1, 1500},
		{2, 750},
		{7, 214},
		{100, 15},
		{1000, 15},
		{0.001, 150000},
	}
	for _, c := range cases {
		if got := FlushThreshold(c.scale); got != c.want {
			t.Fatalf("FlushThreshold(%v) = %d, want %d", c.scale, got, c.want)
		}
	}
}

func TestParseRoutingMode(t *testing.T) {
	if m, err := ParseRoutingMode(" Static "); err != nil || m != RoutingStatic {
		t.Fatalf("mode = %q, %v; want static", m, err)
	}
	if m, err := ParseRoutingMode(""); err != nil || m != RoutingCached {
		t.Fatalf("mode = %q, %v; want cached", m, err)
	}
	if _, err := ParseRoutingMode("dijkstra"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestRouteEngineCachedWindow(t *testing.T) {
	ctx := context.Background()
	m := newSquareMap(t)
	c := cache.NewMemoryRouteCache()
	e := NewRouteEngine(m, c, RoutingCached, 1)

	cost, road, err := e.BestNextHop(ctx, 1, 3, nil)
	if err != nil || cost != 88 || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("route = (%v, %v, %v), want (88, 1-2)", cost, road, err)
	}

	jam := 100.0
	m.SetCost(domain.RoadID{A: 1, B: 2}, &jam, nil)

	cost, road, _ = e.BestNextHop(ctx, 1, 3, nil)
	if cost != 88 || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("cached route = (%v, %v), want unchanged (88, 1-2)", cost, road)
	}

	if err := e.Flush(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cost, road, _ = e.BestNextHop(ctx, 1, 3, nil)
	if cost != 90 || *road != (domain.RoadID{A: 1, B: 4}) {
		t.Fatalf("route after flush = (%v, %v), want (90, 1-4)", cost, road)
	}
}

func TestRouteEngineCacheHitIgnoresExclude(t *testing.T) {
	ctx := context.Background()
	e := NewRouteEngine(newSquareMap(t), cache.NewMemoryRouteCache(), RoutingCached, 1)

	if _, _, err := e.BestNextHop(ctx, 1, 3, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, road, _ := e.BestNextHop(ctx, 1, 3, roadPtr(1, 2))
	if road == nil || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("road = %v, want cached 1-2", road)
	}
}

func TestRouteEngineDoesNotCacheUnreachable(t *testing.T) {
	ctx := context.Background()
	m := newSquareMap(t)
	m.CreateIntersection(9, orb.Point{})
	c := cache.NewMemoryRouteCache()
	e := NewRouteEngine(m, c, RoutingCached, 1)

	cost, road, _ := e.BestNextHop(ctx, 1, 9, nil)
	if !math.IsInf(cost, 1) || road != nil {
		t.Fatalf("route = (%v, %v), want unreachable", cost, road)
	}
	if _, _, err := e.BestNextHop(ctx, 2, 2, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("cache len = %d, want 0", c.Len())
	}
}

func TestRouteEngineTickFlushes(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryRouteCache()
	e := NewRouteEngine(newSquareMap(t), c, RoutingCached, 100)

	if _, _, err := e.BestNextHop(ctx, 1, 3, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 14; i++ {
		if err := e.Tick(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("cache flushed early, len = %d", c.Len())
	}
	if err := e.Tick(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("cache len after threshold = %d, want 0", c.Len())
	}
}

func TestRouteEngineUncachedSeesCostsImmediately(t *testing.T) {
	ctx := context.Background()
	m := newSquareMap(t)
	e := NewRouteEngine(m, nil, RoutingUncached, 1)

	jam := 100.0
	if _, _, err := e.BestNextHop(ctx, 1, 3, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.SetCost(domain.RoadID{A: 1, B: 2}, &jam, nil)

	_, road, _ := e.BestNextHop(ctx, 1, 3, nil)
	if road == nil || *road != (domain.RoadID{A: 1, B: 4}) {
		t.Fatalf("road = %v, want 1-4", road)
	}
}

func TestRouteEngineStaticMode(t *testing.T) {
	ctx := context.Background()
	m := newSquareMap(t)
	e := NewRouteEngine(m, nil, RoutingStatic, 1)

	jam := 100.0
	m.SetCost(domain.RoadID{A: 1, B: 2}, &jam, nil)

	cost, road, err := e.BestNextHop(ctx, 1, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 88 || road == nil || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("static route = (%v, %v), want (88, 1-2)", cost, road)
	}

	cost, road, _ = e.BestNextHop(ctx, 1, 3, roadPtr(1, 2))
	if cost != 90 || road == nil || *road != (domain.RoadID{A: 1, B: 4}) {
		t.Fatalf("static route excluding 1-2 = (%v, %v), want (90, 1-4)", cost, road)
	}

	// topology edits rebuild the hierarchy
	m.DeleteRoad(domain.RoadID{A: 3, B: 4})
	cost, _, _ = e.BestNextHop(ctx, 4, 3, nil)
	if cost != 97 {
		t.Fatalf("cost 4->3 after delete = %v, want 97", cost)
	}
}

// flakyCache fails every call, like a cache backend that went away.
type flakyCache struct{}

func (flakyCache) Get(context.Context, domain.IntersectionID, domain.IntersectionID) (ports.CachedRoute, bool, error) {
	return ports.CachedRoute{}, false, errors.New("redis down")
}

func (flakyCache) Put(context.Context, domain.IntersectionID, domain.IntersectionID, ports.CachedRoute) error {
	return errors.New("redis down")
}

func (flakyCache) Flush(context.Context) error {
	return errors.New("redis down")
}

func TestRouteEngineCacheFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	e := NewRouteEngine(newSquareMap(t), flakyCache{}, RoutingCached, 100)

	for i := 0; i < 40; i++ {
		if err := e.Tick(ctx); err != nil {
			t.Fatalf("tick %d: unexpected error: %v", i, err)
		}
	}

	cost, road, err := e.BestNextHop(ctx, 1, 3, nil)
	if err != nil || cost != 88 || road == nil || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("route = (%v, %v, %v), want (88, 1-2)", cost, road, err)
	}
}

func TestSimulatorRunsWithFailingCache(t *testing.T) {
	m := newSquareMap(t)
	cfg := fastConfig()
	cfg.Scale = 100
	sim := NewSimulator(NewNetwork(m, NewRouteEngine(m, flakyCache{}, RoutingCached, cfg.Scale)), cfg)

	if err := sim.Run(context.Background(), 60, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
