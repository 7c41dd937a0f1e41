package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/platform/obs"
	"traffic-reroute-service/internal/ports"
)

type RoutingMode string

const (
	// Search on static plus dynamic costs, memoized until the next flush.
	RoutingCached RoutingMode = "cached"
	// Search on static plus dynamic costs on every query.
	RoutingUncached RoutingMode = "uncached"
	// Shortest paths on static costs only, via contraction hierarchies.
	RoutingStatic RoutingMode = "static"
)

func ParseRoutingMode(s string) (RoutingMode, error) {
	switch m := RoutingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RoutingCached, RoutingUncached, RoutingStatic:
		return m, nil
	case "":
		return RoutingCached, nil
	default:
		return "", fmt.Errorf("parse routing mode: unknown mode %q", s)
	}
}

// Cache flush cadence at scale 1. Faster simulations flush after proportionally fewer
// ticks so the real time between flushes stays roughly constant.
const baseFlushTicks = 1500

// FlushThreshold returns the number of ticks between full cache flushes for a scale.
func FlushThreshold(scale float64) int {
	s := min(max(scale, 0.01), 100)
	return int(math.Floor(baseFlushTicks / s))
}

// RouteEngine answers next-hop queries against a road map. It is not safe for
// concurrent use; callers hold the Network lock.
type RouteEngine struct {
	roads      *domain.RoadMap
	cache      ports.RouteCache
	mode       RoutingMode
	flushEvery int
	ticks      int

	static        *StaticRouter
	staticVersion uint64
}

func NewRouteEngine(roads *domain.RoadMap, cache ports.RouteCache, mode RoutingMode, scale float64) *RouteEngine {
	if mode == "" {
		mode = RoutingCached
	}
	return &RouteEngine{
		roads:      roads,
		cache:      cache,
		mode:       mode,
		flushEvery: FlushThreshold(scale),
	}
}

func (e *RouteEngine) Mode() RoutingMode { return e.mode }

// BestNextHop returns the cost to dst and the first road to take from src.
//
// In cached mode a hit is returned as is, without looking at exclude. Only results
// that name a road are stored.
func (e *RouteEngine) BestNextHop(
	ctx context.Context,
	src, dst domain.IntersectionID,
	exclude *domain.RoadID,
) (float64, *domain.RoadID, error) {
	switch e.mode {
	case RoutingStatic:
		return e.staticNextHop(src, dst, exclude)
	case RoutingUncached:
		cost, road := searchNextHop(e.roads, src, dst, exclude, true)
		return cost, road, nil
	}

	if e.cache != nil {
		cached, ok, err := e.cache.Get(ctx, src, dst)
		if err != nil {
			log.Printf("op=route.cache.Get src=%d dst=%d err=%v", src, dst, err)
		} else if ok {
			return cached.Cost, cached.Road, nil
		}
	}

	cost, road := searchNextHop(e.roads, src, dst, exclude, true)

	if e.cache != nil && road != nil {
		if err := e.cache.Put(ctx, src, dst, ports.CachedRoute{Cost: cost, Road: road}); err != nil {
			log.Printf("op=route.cache.Put src=%d dst=%d err=%v", src, dst, err)
		}
	}

	return cost, road, nil
}

// Tick advances the flush counter and clears the cache once the threshold is reached.
// A failed flush is logged like any other cache error and the window starts over.
func (e *RouteEngine) Tick(ctx context.Context) error {
	e.ticks++
	if e.ticks < e.flushEvery {
		return nil
	}
	e.ticks = 0
	if err := e.Flush(ctx); err != nil {
		log.Printf("op=route.cache.Flush err=%v", err)
	}
	return nil
}

func (e *RouteEngine) Flush(ctx context.Context) (err error) {
	if e.cache == nil {
		return nil
	}
	defer obs.Time(ctx, "route.cache.Flush")(&err)

	if err := e.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flush route cache: %w", err)
	}
	return nil
}

func (e *RouteEngine) staticNextHop(
	src, dst domain.IntersectionID,
	exclude *domain.RoadID,
) (float64, *domain.RoadID, error) {
	if e.static == nil || e.staticVersion != e.roads.Version() {
		r, err := NewStaticRouter(e.roads)
		if err != nil {
			return math.Inf(1), nil, fmt.Errorf("static next hop: %w", err)
		}
		e.static = r
		e.staticVersion = e.roads.Version()
	}

	cost, road := e.static.NextHop(src, dst, exclude)
	return cost, road, nil
}
