package services

import (
	"fmt"
	"math"
	"traffic-reroute-service/internal/domain"

	"github.com/LdDl/ch"
)

// StaticRouter answers shortest-path queries on static road costs using
// contraction hierarchies. Dynamic costs are ignored.
type StaticRouter struct {
	roads *domain.RoadMap
	graph *ch.Graph
}

func NewStaticRouter(m *domain.RoadMap) (*StaticRouter, error) {
	graph := &ch.Graph{}

	for _, in := range m.Intersections() {
		if err := graph.CreateVertex(int64(in.ID)); err != nil {
			return nil, fmt.Errorf("build static router: vertex %d: %w", in.ID, err)
		}
	}

	for _, road := range m.Roads() {
		a, b := int64(road.ID.A), int64(road.ID.B)
		if err := graph.AddEdge(a, b, road.CostFrom(road.ID.A, false)); err != nil {
			return nil, fmt.Errorf("build static router: edge %s: %w", road.ID, err)
		}
		if err := graph.AddEdge(b, a, road.CostFrom(road.ID.B, false)); err != nil {
			return nil, fmt.Errorf("build static router: edge %s: %w", road.ID, err)
		}
	}

	graph.PrepareContractionHierarchies()

	return &StaticRouter{roads: m, graph: graph}, nil
}

// ShortestPath returns the static cost and the intersections along the shortest path.
// The cost is +Inf when dst is unreachable.
func (r *StaticRouter) ShortestPath(src, dst domain.IntersectionID) (float64, []domain.IntersectionID) {
	if src == dst {
		return 0, []domain.IntersectionID{src}
	}

	cost, path := r.graph.ShortestPath(int64(src), int64(dst))
	if cost < 0 || len(path) == 0 {
		return math.Inf(1), nil
	}

	out := make([]domain.IntersectionID, len(path))
	for i, v := range path {
		out[i] = domain.IntersectionID(v)
	}
	return cost, out
}

// NextHop picks the incident road of src, other than exclude, that starts the
// cheapest static route to dst.
func (r *StaticRouter) NextHop(src, dst domain.IntersectionID, exclude *domain.RoadID) (float64, *domain.RoadID) {
	if src == dst {
		return 0, nil
	}

	in, ok := r.roads.Intersection(src)
	if !ok {
		return math.Inf(1), nil
	}

	best := math.Inf(1)
	var bestRoad *domain.RoadID

	for _, id := range in.Roads() {
		if exclude != nil && id == *exclude {
			continue
		}
		road, ok := r.roads.Road(id)
		if !ok {
			continue
		}

		rest, _ := r.ShortestPath(id.Other(src), dst)
		total := road.CostFrom(src, false) + rest
		if total < best {
			best = total
			hop := id
			bestRoad = &hop
		}
	}

	return best, bestRoad
}
