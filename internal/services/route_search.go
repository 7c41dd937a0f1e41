package services

import (
	"math"
	"slices"
	"traffic-reroute-service/internal/domain"
)

// Choose the cheapest next road from src toward dst by exhaustive search over simple paths.
//
// Every incident road except exclude and the roads already on the current path is
// tried; the cost of a candidate is the traversal cost leaving src plus the best cost
// from the road's far end. The first strict minimum wins. The search is exponential
// in network size and is only meant for small fixed networks.
func searchNextHop(
	m *domain.RoadMap,
	src, dst domain.IntersectionID,
	exclude *domain.RoadID,
	useDynamic bool,
) (float64, *domain.RoadID) {
	visited := make([]domain.RoadID, 0, 8)
	return searchFrom(m, src, dst, exclude, useDynamic, &visited)
}

func searchFrom(
	m *domain.RoadMap,
	src, dst domain.IntersectionID,
	exclude *domain.RoadID,
	useDynamic bool,
	visited *[]domain.RoadID,
) (float64, *domain.RoadID) {
	if src == dst {
		return 0, nil
	}

	in, ok := m.Intersection(src)
	if !ok {
		return math.Inf(1), nil
	}

	best := math.Inf(1)
	var bestRoad *domain.RoadID

	for _, id := range in.Roads() {
		if exclude != nil && id == *exclude {
			continue
		}
		if slices.Contains(*visited, id) {
			continue
		}
		road, ok := m.Road(id)
		if !ok {
			continue
		}

		*visited = append(*visited, id)
		rest, _ := searchFrom(m, id.Other(src), dst, &id, useDynamic, visited)
		*visited = (*visited)[:len(*visited)-1]

		total := rest + road.CostFrom(src, useDynamic)
		if total < best {
			best = total
			hop := id
			bestRoad = &hop
		}
	}

	return best, bestRoad
}
