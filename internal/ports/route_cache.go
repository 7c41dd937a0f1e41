package ports

import (
	"context"
	"traffic-reroute-service/internal/domain"
)

// A cached routing decision for one (source, destination) pair.
// Road is nil when the destination was unreachable.
type CachedRoute struct {
	Cost float64
	Road *domain.RoadID
}

// Contract for memoizing next-hop decisions between full flushes.
type RouteCache interface {
	// Return the cached decision for the pair, if any.
	Get(ctx context.Context, src, dst domain.IntersectionID) (CachedRoute, bool, error)
	// Store a decision for the pair.
	Put(ctx context.Context, src, dst domain.IntersectionID, route CachedRoute) error
	// Drop every cached decision.
	Flush(ctx context.Context) error
}
