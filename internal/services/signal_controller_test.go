package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
)

type fakeTable map[string]ports.SignalAddress

func (t fakeTable) Lookup(name string) (ports.SignalAddress, bool) {
	a, ok := t[name]
	return a, ok
}

type recordingOutput struct {
	calls []string
	err   error
}

func (o *recordingOutput) Set(_ context.Context, addr ports.SignalAddress, on bool) error {
	o.calls = append(o.calls, fmt.Sprintf("%d:%d=%t", addr.Bank, addr.Index, on))
	return o.err
}

// recoveringRouter fails its first call the way a panicking network does, then
// delegates to next.
type recoveringRouter struct {
	next  ports.Router
	calls atomic.Int32
}

func (r *recoveringRouter) BestNextHop(ctx context.Context, src, dst domain.IntersectionID, exclude *domain.RoadID) (float64, *domain.RoadID, error) {
	if r.calls.Add(1) == 1 {
		return 0, nil, fmt.Errorf("%w: runtime error: index out of range", ErrNetworkPanic)
	}
	return r.next.BestNextHop(ctx, src, dst, exclude)
}

type failingRouter struct{}

func (failingRouter) BestNextHop(context.Context, domain.IntersectionID, domain.IntersectionID, *domain.RoadID) (float64, *domain.RoadID, error) {
	return 0, nil, errors.New("router down")
}

var testTable = fakeTable{
	"U": {Bank: 1, Index: 0},
	"L": {Bank: 1, Index: 1},
}

// Vehicles arrive at 1 from 5 and head for 3.
func newSignalFixture(t *testing.T) (*Network, []domain.DecisionPoint) {
	t.Helper()

	topo := squareTopology()
	topo.Intersections = append(topo.Intersections, ports.IntersectionRecord{ID: 5, X: -10, Y: 0})
	topo.Roads = append(topo.Roads, ports.RoadRecord{A: 5, B: 1, Length: 10})
	m, err := BuildRoadMap(topo)
	if err != nil {
		t.Fatalf("build road map: %v", err)
	}

	points := []domain.DecisionPoint{{
		Road:         domain.RoadID{A: 5, B: 1},
		Intersection: 1,
		Routes: []domain.SignalRoute{{
			Destination: 3,
			Signals: map[domain.RoadID]string{
				{A: 1, B: 2}: "U",
				{A: 1, B: 4}: "L",
			},
		}},
	}}
	return NewNetwork(m, NewRouteEngine(m, nil, RoutingUncached, 1)), points
}

func TestSignalControllerRefresh(t *testing.T) {
	ctx := context.Background()
	net, points := newSignalFixture(t)
	out := &recordingOutput{}
	c := NewSignalController(net, out, testTable, points, 0)

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Lit(); !reflect.DeepEqual(got, []string{"U"}) {
		t.Fatalf("lit = %v, want [U]", got)
	}

	jam := 100.0
	if _, err := net.SetCost(domain.RoadID{A: 1, B: 2}, &jam, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Lit(); !reflect.DeepEqual(got, []string{"L"}) {
		t.Fatalf("lit = %v, want [L]", got)
	}

	want := []string{"1:0=true", "1:0=false", "1:1=true"}
	if !reflect.DeepEqual(out.calls, want) {
		t.Fatalf("calls = %v, want %v", out.calls, want)
	}
}

func TestSignalControllerOutputErrorsAreNotFatal(t *testing.T) {
	net, points := newSignalFixture(t)
	out := &recordingOutput{err: errors.New("port closed")}
	c := NewSignalController(net, out, testTable, points, 0)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.calls) != 1 {
		t.Fatalf("calls = %v, want one attempt", out.calls)
	}
}

func TestSignalControllerRouterError(t *testing.T) {
	_, points := newSignalFixture(t)
	c := NewSignalController(failingRouter{}, &recordingOutput{}, testTable, points, 0)

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatalf("expected router error")
	}
}

func TestSignalControllerRunSurvivesRouterError(t *testing.T) {
	net, points := newSignalFixture(t)
	router := &recoveringRouter{next: net}
	c := NewSignalController(router, &recordingOutput{}, testTable, points, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for router.calls.Load() < 3 {
		select {
		case err := <-done:
			t.Fatalf("run stopped after %d refreshes: %v", router.calls.Load(), err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("refreshes = %d, want at least 3", router.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestSignalControllerRunStopsOnCancel(t *testing.T) {
	net, points := newSignalFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewSignalController(net, &recordingOutput{}, testTable, points, 0)
	if err := c.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
