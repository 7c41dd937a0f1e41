package ports

import (
	"context"
	"traffic-reroute-service/internal/domain"
)

// Contract for choosing the next road toward a destination.
type Router interface {
	// Return the total cost to dst and the road to take first. A nil road with an
	// infinite cost means dst is unreachable; a nil road with zero cost means src == dst.
	BestNextHop(ctx context.Context, src, dst domain.IntersectionID, exclude *domain.RoadID) (float64, *domain.RoadID, error)
}
