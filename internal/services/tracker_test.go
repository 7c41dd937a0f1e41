package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
	"traffic-reroute-service/internal/domain"
)

var (
	laneFwd = domain.LaneID{Road: domain.RoadID{A: 1, B: 2}, Dir: domain.Forward}
	laneBck = domain.LaneID{Road: domain.RoadID{A: 1, B: 2}, Dir: domain.Backward}
)

// stripClassifier maps x < 10 to the forward lane and 10 <= x < 20 to the backward lane.
type stripClassifier struct{}

func (stripClassifier) Classify(x, _ float64) (domain.LaneID, bool) {
	switch {
	case x >= 0 && x < 10:
		return laneFwd, true
	case x >= 10 && x < 20:
		return laneBck, true
	}
	return domain.LaneID{}, false
}

func newTestTracker() *Tracker {
	return NewTracker(stripClassifier{}, []domain.LaneID{laneFwd, laneBck}, DefaultTrackerConfig())
}

func TestTrackerObserve(t *testing.T) {
	tr := newTestTracker()
	now := time.Unix(0, 0)

	if tr.Observe(domain.Detection{ID: 1, X: 50}, now) {
		t.Fatalf("expected detection outside every lane to be dropped")
	}
	if !tr.Observe(domain.Detection{ID: 1, X: 5, Velocity: 3}, now) {
		t.Fatalf("expected detection to be recorded")
	}
	if tr.Occupancy(laneFwd) != 1 || tr.Occupancy(laneBck) != 0 {
		t.Fatalf("occupancy = %d/%d, want 1/0", tr.Occupancy(laneFwd), tr.Occupancy(laneBck))
	}

	// moving to another lane leaves the previous one
	tr.Observe(domain.Detection{ID: 1, X: 15, Velocity: 3}, now.Add(time.Millisecond))
	if tr.Occupancy(laneFwd) != 0 || tr.Occupancy(laneBck) != 1 {
		t.Fatalf("occupancy after move = %d/%d, want 0/1", tr.Occupancy(laneFwd), tr.Occupancy(laneBck))
	}
}

func TestTrackerEvict(t *testing.T) {
	tr := newTestTracker()
	now := time.Unix(0, 0)

	tr.Observe(domain.Detection{ID: 1, X: 1}, now)
	tr.Observe(domain.Detection{ID: 2, X: 2}, now.Add(time.Second))

	if gone := tr.Evict(now.Add(1300 * time.Millisecond)); len(gone) != 0 {
		t.Fatalf("evicted %v at the threshold, want none", gone)
	}

	gone := tr.Evict(now.Add(1301 * time.Millisecond))
	if len(gone) != 1 || gone[0] != 1 {
		t.Fatalf("evicted %v, want [1]", gone)
	}
	if tr.Occupancy(laneFwd) != 1 {
		t.Fatalf("occupancy = %d, want 1", tr.Occupancy(laneFwd))
	}
}

func TestTrackerLaneCost(t *testing.T) {
	tr := newTestTracker()
	now := time.Unix(0, 0)
	const length = 36.0

	tr.Observe(domain.Detection{ID: 1, X: 1, Velocity: 20}, now)

	density := 500.0 / length
	cost, ok := tr.LaneCost(laneFwd, length, now)
	if !ok || math.Abs(cost-density) > 1e-9 {
		t.Fatalf("cost = %v, want density only %v", cost, density)
	}

	if cost, ok := tr.LaneCost(laneBck, length, now); !ok || cost != 0 {
		t.Fatalf("empty lane cost = %v, %v; want 0", cost, ok)
	}

	// enough updates and dwell time bring the velocity term in
	var last time.Time
	for i := 1; i <= 51; i++ {
		last = now.Add(time.Duration(i) * 60 * time.Millisecond)
		tr.Observe(domain.Detection{ID: 1, X: 1, Velocity: 20}, last)
	}
	want := density + density*50/(0.1+20)
	cost, _ = tr.LaneCost(laneFwd, length, last)
	if math.Abs(cost-want) > 1e-9 {
		t.Fatalf("cost = %v, want %v", cost, want)
	}

	if _, ok := tr.LaneCost(domain.LaneID{Road: domain.RoadID{A: 7, B: 8}}, length, now); ok {
		t.Fatalf("expected unknown lane to be reported")
	}
}

func TestTrackerApplyCosts(t *testing.T) {
	m := newSquareMap(t)
	tr := newTestTracker()
	now := time.Unix(0, 0)

	jam := 99.0
	m.SetCost(domain.RoadID{A: 1, B: 2}, nil, &jam)
	tr.Observe(domain.Detection{ID: 1, X: 1}, now)

	if n := tr.ApplyCosts(m, now); n != 2 {
		t.Fatalf("applied = %d, want 2", n)
	}

	road, _ := m.Road(domain.RoadID{A: 1, B: 2})
	fwd, bck := road.DynamicCost()
	if math.Abs(fwd-500.0/36) > 1e-9 || bck != 0 {
		t.Fatalf("costs = %v/%v, want %v/0", fwd, bck, 500.0/36)
	}

	if got := tr.Lanes(); len(got) != 2 || got[0] != laneFwd || got[1] != laneBck {
		t.Fatalf("lanes = %v", got)
	}
}

func TestCompareLanesExtremeValues(t *testing.T) {
	road := domain.RoadID{A: 1, B: 2}
	low := domain.LaneID{Road: road, Dir: math.MinInt}
	high := domain.LaneID{Road: road, Dir: 1}

	if got := compareLanes(low, high); got >= 0 {
		t.Fatalf("compareLanes(low, high) = %d, want < 0", got)
	}
	if got := compareLanes(high, low); got <= 0 {
		t.Fatalf("compareLanes(high, low) = %d, want > 0", got)
	}

	far := domain.LaneID{Road: domain.RoadID{A: math.MaxUint32, B: 1}}
	near := domain.LaneID{Road: domain.RoadID{A: 0, B: 1}}
	if got := compareLanes(near, far); got >= 0 {
		t.Fatalf("compareLanes(near, far) = %d, want < 0", got)
	}
}

func TestTrackerCostPassPanicIsReported(t *testing.T) {
	tr := newTestTracker()
	// a network without a road map panics inside the lock
	err := tr.updateCosts(NewNetwork(nil, nil), time.Unix(0, 0))
	if !errors.Is(err, ErrNetworkPanic) {
		t.Fatalf("err = %v, want ErrNetworkPanic", err)
	}
}

func TestTrackerRunSurvivesFailedCostPass(t *testing.T) {
	tr := newTestTracker()
	ctx, cancel := context.WithCancel(context.Background())
	detections := make(chan []domain.Detection)

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, NewNetwork(nil, nil), detections, time.Millisecond) }()

	// several cost passes fail while detections keep flowing
	for i := 0; i < 5; i++ {
		select {
		case detections <- []domain.Detection{{ID: uint64(i + 1), X: 1}}:
		case err := <-done:
			t.Fatalf("run stopped early: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
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
