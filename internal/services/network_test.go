package services

import (
	"context"
	"errors"
	"testing"
	"traffic-reroute-service/internal/domain"
)

func TestNetworkRecoversPanic(t *testing.T) {
	m := newSquareMap(t)
	n := NewNetwork(m, NewRouteEngine(m, nil, RoutingUncached, 1))

	err := n.WithLock(func(*domain.RoadMap, *RouteEngine) error {
		panic("boom")
	})
	if !errors.Is(err, ErrNetworkPanic) {
		t.Fatalf("err = %v, want ErrNetworkPanic", err)
	}

	// the lock must be usable afterwards
	jam := 20.0
	ok, err := n.SetCost(domain.RoadID{A: 1, B: 2}, &jam, nil)
	if err != nil || !ok {
		t.Fatalf("set cost = %v, %v; want true, nil", ok, err)
	}
}

func TestNetworkBestNextHop(t *testing.T) {
	m := newSquareMap(t)
	n := NewNetwork(m, NewRouteEngine(m, nil, RoutingUncached, 1))

	cost, road, err := n.BestNextHop(context.Background(), 1, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 88 || road == nil || *road != (domain.RoadID{A: 1, B: 2}) {
		t.Fatalf("route = (%v, %v), want (88, 1-2)", cost, road)
	}

	jam := 20.0
	if _, err := n.SetCost(domain.RoadID{A: 1, B: 2}, &jam, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cost, road, _ = n.BestNextHop(context.Background(), 1, 3, nil)
	if cost != 90 || *road != (domain.RoadID{A: 1, B: 4}) {
		t.Fatalf("route after cost = (%v, %v), want (90, 1-4)", cost, road)
	}
}

func TestNetworkSetCostUnknownRoad(t *testing.T) {
	m := newSquareMap(t)
	n := NewNetwork(m, NewRouteEngine(m, nil, RoutingUncached, 1))

	jam := 1.0
	ok, err := n.SetCost(domain.RoadID{A: 1, B: 3}, &jam, &jam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected unknown road to be reported")
	}
}
