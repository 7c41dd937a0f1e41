package services

import (
	"math"
	"testing"
	"traffic-reroute-service/internal/domain"

	"github.com/paulmach/orb"
)

func TestSearchNextHopSquare(t *testing.T) {
	m := newSquareMap(t)

	cost, road := searchNextHop(m, 1, 3, nil, true)
	if cost != 88 {
		t.Fatalf("cost = %v, want 88", cost)
	}
	if road == nil || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("road = %v, want 1-2", road)
	}
}

func TestSearchNextHopExclude(t *testing.T) {
	m := newSquareMap(t)

	cost, road := searchNextHop(m, 1, 3, roadPtr(1, 2), true)
	if cost != 90 {
		t.Fatalf("cost = %v, want 90", cost)
	}
	if road == nil || *road != (domain.RoadID{A: 1, B: 4}) {
		t.Fatalf("road = %v, want 1-4", road)
	}
}

func TestSearchNextHopSelf(t *testing.T) {
	m := newSquareMap(t)
	for id := domain.IntersectionID(1); id <= 4; id++ {
		cost, road := searchNextHop(m, id, id, nil, true)
		if cost != 0 || road != nil {
			t.Fatalf("self route at %d = (%v, %v), want (0, none)", id, cost, road)
		}
	}
}

func TestSearchNextHopDisconnected(t *testing.T) {
	m := newSquareMap(t)
	m.CreateIntersection(9, orb.Point{100, 100})

	cost, road := searchNextHop(m, 1, 9, nil, true)
	if !math.IsInf(cost, 1) || road != nil {
		t.Fatalf("route = (%v, %v), want (+Inf, none)", cost, road)
	}

	cost, road = searchNextHop(m, 9, 1, nil, true)
	if !math.IsInf(cost, 1) || road != nil {
		t.Fatalf("route from isolated = (%v, %v), want (+Inf, none)", cost, road)
	}
}

func TestSearchNextHopDynamicCost(t *testing.T) {
	m := newSquareMap(t)

	extra := 10.0
	m.SetCost(domain.RoadID{A: 1, B: 2}, &extra, nil)

	cost, road := searchNextHop(m, 1, 3, nil, true)
	if cost != 90 || road == nil || *road != (domain.RoadID{A: 1, B: 4}) {
		t.Fatalf("route = (%v, %v), want (90, 1-4)", cost, road)
	}

	// static-only search ignores the congestion
	cost, road = searchNextHop(m, 1, 3, nil, false)
	if cost != 88 || road == nil || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("static route = (%v, %v), want (88, 1-2)", cost, road)
	}

	// the backward direction is unaffected
	cost, _ = searchNextHop(m, 2, 1, nil, true)
	if cost != 36 {
		t.Fatalf("cost 2->1 = %v, want 36", cost)
	}
}

// bruteForce enumerates every edge-simple path from src to dst and returns the cheapest cost.
func bruteForce(m *domain.RoadMap, src, dst domain.IntersectionID, used map[domain.RoadID]bool) float64 {
	if src == dst {
		return 0
	}
	in, _ := m.Intersection(src)
	best := math.Inf(1)
	for _, id := range in.Roads() {
		if used[id] {
			continue
		}
		road, _ := m.Road(id)
		used[id] = true
		c := road.CostFrom(src, true) + bruteForce(m, id.Other(src), dst, used)
		used[id] = false
		best = min(best, c)
	}
	return best
}

func TestSearchNextHopOptimal(t *testing.T) {
	m := newSquareMap(t)
	f, b := 7.0, 3.0
	m.SetCost(domain.RoadID{A: 2, B: 4}, &f, &b)
	m.SetCost(domain.RoadID{A: 3, B: 4}, nil, &f)

	for src := domain.IntersectionID(1); src <= 4; src++ {
		for dst := domain.IntersectionID(1); dst <= 4; dst++ {
			if src == dst {
				continue
			}
			cost, hop := searchNextHop(m, src, dst, nil, true)
			if hop == nil || !hop.Has(src) {
				t.Fatalf("%d->%d: hop %v is not incident to source", src, dst, hop)
			}

			want := bruteForce(m, src, dst, map[domain.RoadID]bool{})
			if cost != want {
				t.Fatalf("%d->%d: cost = %v, want %v", src, dst, cost, want)
			}

			road, _ := m.Road(*hop)
			rest := bruteForce(m, hop.Other(src), dst, map[domain.RoadID]bool{*hop: true})
			if got := road.CostFrom(src, true) + rest; got != cost {
				t.Fatalf("%d->%d: hop %s yields %v, want %v", src, dst, hop, got, cost)
			}
		}
	}
}
