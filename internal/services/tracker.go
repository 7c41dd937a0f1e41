package services

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"slices"
	"time"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"

	"github.com/samber/lo"
)

type TrackerConfig struct {
	EvictAfter     time.Duration
	MinUpdates     int
	MinDwell       time.Duration
	VelocityWindow int
	Coefficients   domain.CostCoefficients
}

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		EvictAfter:     1300 * time.Millisecond,
		MinUpdates:     50,
		MinDwell:       2600 * time.Millisecond,
		VelocityWindow: 15,
		Coefficients:   domain.CostCoefficients{Density: 500, Velocity: 50},
	}
}

type trackedVehicle struct {
	id        uint64
	lane      domain.LaneID
	x, y      float64
	avgVel    float64
	velSum    float64
	velN      int
	updates   int
	firstSeen time.Time
	lastSeen  time.Time
}

func (v *trackedVehicle) observe(d domain.Detection, lane domain.LaneID, window int, now time.Time) {
	v.x, v.y = d.X, d.Y
	if v.velN >= window {
		v.velSum = 0
		v.velN = 0
	}
	v.velSum += d.Velocity
	v.velN++
	v.avgVel = v.velSum / float64(v.velN)
	v.lane = lane
	v.lastSeen = now
	v.updates++
}

// Tracker keeps lane occupancy from live detections and derives lane costs from it.
// It is owned by a single goroutine.
type Tracker struct {
	classifier ports.LaneClassifier
	cfg        TrackerConfig

	vehicles map[uint64]*trackedVehicle
	lanes    map[domain.LaneID]map[uint64]struct{}
}

// NewTracker starts with an empty occupancy set for every known lane, so each of
// them receives a cost on every update.
func NewTracker(classifier ports.LaneClassifier, lanes []domain.LaneID, cfg TrackerConfig) *Tracker {
	t := &Tracker{
		classifier: classifier,
		cfg:        cfg,
		vehicles:   make(map[uint64]*trackedVehicle),
		lanes:      make(map[domain.LaneID]map[uint64]struct{}, len(lanes)),
	}
	for _, l := range lanes {
		t.lanes[l] = make(map[uint64]struct{})
	}
	return t
}

// Observe records one detection. Detections outside every lane are dropped.
func (t *Tracker) Observe(d domain.Detection, now time.Time) bool {
	lane, ok := t.classifier.Classify(d.X, d.Y)
	if !ok {
		return false
	}

	v, seen := t.vehicles[d.ID]
	if !seen {
		t.vehicles[d.ID] = &trackedVehicle{
			id:        d.ID,
			lane:      lane,
			x:         d.X,
			y:         d.Y,
			avgVel:    d.Velocity,
			velSum:    d.Velocity,
			velN:      1,
			firstSeen: now,
			lastSeen:  now,
		}
		t.occupy(lane, d.ID)
		return true
	}

	if v.lane != lane {
		delete(t.lanes[v.lane], d.ID)
		t.occupy(lane, d.ID)
	}
	v.observe(d, lane, t.cfg.VelocityWindow, now)
	return true
}

func (t *Tracker) occupy(lane domain.LaneID, id uint64) {
	set, ok := t.lanes[lane]
	if !ok {
		set = make(map[uint64]struct{})
		t.lanes[lane] = set
	}
	set[id] = struct{}{}
}

// Evict drops vehicles not seen within EvictAfter and returns their ids.
func (t *Tracker) Evict(now time.Time) []uint64 {
	var gone []uint64
	for id, v := range t.vehicles {
		if now.Sub(v.lastSeen) > t.cfg.EvictAfter {
			gone = append(gone, id)
		}
	}
	slices.Sort(gone)

	for _, id := range gone {
		delete(t.lanes[t.vehicles[id].lane], id)
		delete(t.vehicles, id)
	}
	return gone
}

// Lanes returns every lane the tracker knows, in a stable order.
func (t *Tracker) Lanes() []domain.LaneID {
	lanes := lo.Keys(t.lanes)
	slices.SortFunc(lanes, compareLanes)
	return lanes
}

// Occupancy returns the number of vehicles currently on lane.
func (t *Tracker) Occupancy(lane domain.LaneID) int {
	return len(t.lanes[lane])
}

// LaneCost computes the dynamic cost of a lane. Only vehicles tracked long enough
// contribute to the average velocity; every occupant counts toward density.
func (t *Tracker) LaneCost(lane domain.LaneID, length float64, now time.Time) (float64, bool) {
	occupants, ok := t.lanes[lane]
	if !ok {
		return 0, false
	}

	var vels []float64
	for id := range occupants {
		v, ok := t.vehicles[id]
		if !ok {
			continue
		}
		if v.updates > t.cfg.MinUpdates && now.Sub(v.firstSeen) > t.cfg.MinDwell {
			vels = append(vels, v.avgVel)
		}
	}

	return domain.LaneCost(len(occupants), length, vels, t.cfg.Coefficients), true
}

// ApplyCosts writes the cost of every known lane into roads. The caller holds the
// network lock. Lanes of unknown roads are skipped.
func (t *Tracker) ApplyCosts(roads *domain.RoadMap, now time.Time) int {
	applied := 0
	for _, lane := range t.Lanes() {
		length, ok := roads.RoadLength(lane.Road)
		if !ok {
			continue
		}
		cost, _ := t.LaneCost(lane, length, now)
		if lane.Dir == domain.Forward {
			roads.SetCost(lane.Road, &cost, nil)
		} else {
			roads.SetCost(lane.Road, nil, &cost)
		}
		applied++
	}
	return applied
}

// Run owns the tracker: it records detections as they arrive and every interval evicts
// stale vehicles and writes lane costs into network. A failed cost pass is logged and
// the loop goes on. Run returns when ctx is done.
func (t *Tracker) Run(
	ctx context.Context,
	network *Network,
	detections <-chan []domain.Detection,
	interval time.Duration,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case batch := <-detections:
			now := time.Now()
			for _, d := range batch {
				t.Observe(d, now)
			}

		case <-ticker.C:
			if err := t.updateCosts(network, time.Now()); err != nil {
				log.Printf("op=tracker.Run err=%v", err)
			}
		}
	}
}

func (t *Tracker) updateCosts(network *Network, now time.Time) error {
	if gone := t.Evict(now); len(gone) > 0 {
		log.Printf("op=tracker.Evict vehicles=%v", gone)
	}
	err := network.WithLock(func(roads *domain.RoadMap, _ *RouteEngine) error {
		t.ApplyCosts(roads, now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply lane costs: %w", err)
	}
	return nil
}

func compareLanes(a, b domain.LaneID) int {
	if c := cmp.Compare(a.Road.A, b.Road.A); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Road.B, b.Road.B); c != 0 {
		return c
	}
	return cmp.Compare(a.Dir, b.Dir)
}
