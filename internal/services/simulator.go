package services

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"time"
	"traffic-reroute-service/internal/domain"

	"github.com/samber/lo"
)

const (
	// Spawns are skipped while the last vehicle on the first lane is this close to its start.
	minSpawnGap = 5.0

	minMaxVelocity  = 20.0
	maxMaxVelocity  = 150.0
	minAcceleration = 5.0
	maxAcceleration = 50.0

	// Kinematic step per tick at scale 1.
	baseTimeStep = 0.001
)

type SimulatorConfig struct {
	Scale         float64
	Seed          uint64
	Coefficients  domain.CostCoefficients
	Kinematics    domain.Kinematics
	SpawnInterval int // ticks between spawn attempts, 0 disables spawning
	SpawnBatch    int
	MaxVehicles   int // 0 means unbounded
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Scale:         1,
		Seed:          1,
		Coefficients:  domain.CostCoefficients{Density: 500, Velocity: 50},
		Kinematics:    domain.DefaultKinematics(),
		SpawnInterval: 100,
		SpawnBatch:    1,
	}
}

// Simulator runs the single-threaded tick loop. All of its state is mutated under the
// network lock, so HTTP readers may query it while it runs.
type Simulator struct {
	net *Network
	cfg SimulatorConfig
	dt  float64
	rng *rand.Rand

	vehicles domain.VehicleSet
	nextID   domain.VehicleID
	stats    *domain.StatsManager
	ticks    int
}

func NewSimulator(net *Network, cfg SimulatorConfig) *Simulator {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.SpawnBatch <= 0 {
		cfg.SpawnBatch = 1
	}
	return &Simulator{
		net:      net,
		cfg:      cfg,
		dt:       baseTimeStep * cfg.Scale,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		vehicles: make(domain.VehicleSet),
		nextID:   1,
		stats:    domain.NewStatsManager(),
	}
}

// Tick advances the simulation by one step: vehicles move and reroute, finished
// vehicles leave, lanes reconcile, and the route cache flush counter advances.
func (s *Simulator) Tick(ctx context.Context) error {
	return s.net.WithLock(func(roads *domain.RoadMap, routes *RouteEngine) error {
		s.ticks++
		s.stats.Tick()

		if s.cfg.SpawnInterval > 0 && s.ticks%s.cfg.SpawnInterval == 0 {
			if _, err := s.spawn(ctx, roads, routes, s.cfg.SpawnBatch); err != nil {
				return fmt.Errorf("tick %d: %w", s.ticks, err)
			}
		}

		for _, id := range s.activeIDs() {
			if err := s.step(ctx, roads, routes, s.vehicles[id]); err != nil {
				return fmt.Errorf("tick %d: vehicle %d: %w", s.ticks, id, err)
			}
		}

		s.collectFinished()

		roads.Update(s.vehicles, s.cfg.Coefficients)

		if err := routes.Tick(ctx); err != nil {
			return fmt.Errorf("tick %d: %w", s.ticks, err)
		}
		return nil
	})
}

// Run ticks until ctx is cancelled or maxTicks ticks have run (0 means forever).
// A positive interval paces the loop in real time.
func (s *Simulator) Run(ctx context.Context, maxTicks int, interval time.Duration) error {
	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := s.Tick(ctx); err != nil {
			return fmt.Errorf("run simulator: %w", err)
		}
	}
	return nil
}

// SpawnVehicles tries to place n new vehicles and returns how many were placed.
func (s *Simulator) SpawnVehicles(ctx context.Context, n int) (int, error) {
	var placed int
	err := s.net.WithLock(func(roads *domain.RoadMap, routes *RouteEngine) error {
		var e error
		placed, e = s.spawn(ctx, roads, routes, n)
		return e
	})
	return placed, err
}

func (s *Simulator) spawn(ctx context.Context, roads *domain.RoadMap, routes *RouteEngine, n int) (int, error) {
	placed := 0
	for range n {
		if s.cfg.MaxVehicles > 0 && len(s.vehicles) >= s.cfg.MaxVehicles {
			break
		}

		origin, dest, ok := s.pickPair(roads)
		if !ok {
			break
		}

		_, hop, err := routes.BestNextHop(ctx, origin, dest, nil)
		if err != nil {
			return placed, fmt.Errorf("spawn %d->%d: %w", origin, dest, err)
		}
		if hop == nil {
			continue
		}
		road, ok := roads.Road(*hop)
		if !ok || road.DistInFrontFrom(origin) <= minSpawnGap {
			continue
		}

		v := domain.NewVehicle(
			s.nextID,
			origin,
			dest,
			uniform(s.rng, minMaxVelocity, maxMaxVelocity),
			uniform(s.rng, minAcceleration, maxAcceleration),
		)
		if err := s.enter(road, origin, v); err != nil {
			return placed, fmt.Errorf("spawn vehicle %d: %w", v.ID, err)
		}
		s.vehicles[v.ID] = v
		s.nextID++
		placed++
	}

	if placed > 0 {
		s.stats.SetActive(len(s.vehicles))
	}
	return placed, nil
}

// pickPair samples an ordered pair of distinct intersections weighted by spawn weight.
// When no intersection carries a weight, every intersection is equally likely.
func (s *Simulator) pickPair(roads *domain.RoadMap) (domain.IntersectionID, domain.IntersectionID, bool) {
	all := roads.Intersections()
	candidates := lo.Filter(all, func(in *domain.Intersection, _ int) bool { return in.SpawnWeight > 0 })
	weight := func(in *domain.Intersection) float64 { return in.SpawnWeight }
	if len(candidates) < 2 {
		candidates = all
		weight = func(*domain.Intersection) float64 { return 1 }
	}
	if len(candidates) < 2 {
		return 0, 0, false
	}

	first := weightedIndex(s.rng, candidates, weight)
	origin := candidates[first].ID
	rest := slices.Delete(slices.Clone(candidates), first, first+1)
	dest := rest[weightedIndex(s.rng, rest, weight)].ID

	return origin, dest, true
}

func weightedIndex(rng *rand.Rand, items []*domain.Intersection, weight func(*domain.Intersection) float64) int {
	total := lo.SumBy(items, weight)
	r := rng.Float64() * total
	for i, in := range items {
		r -= weight(in)
		if r < 0 {
			return i
		}
	}
	return len(items) - 1
}

func (s *Simulator) enter(road *domain.Road, from domain.IntersectionID, v *domain.Vehicle) error {
	lane, info, err := road.EnterFrom(from, v.ID)
	if err != nil {
		return err
	}
	v.EnterLane(lane, info, v.MaxVel/(1+s.rng.Float64()))
	return nil
}

func (s *Simulator) step(ctx context.Context, roads *domain.RoadMap, routes *RouteEngine, v *domain.Vehicle) error {
	if v.Lane == nil {
		if v.State != domain.StateStranded {
			v.State = domain.StateUnknown
		}
		return nil
	}

	laneID := *v.Lane
	road, ok := roads.Road(laneID.Road)
	if !ok {
		log.Printf("op=sim.step vehicle=%d lane=%s state=stranded reason=road_missing", v.ID, laneID)
		v.LeaveLane()
		v.State = domain.StateStranded
		return nil
	}

	v.Integrate(v.DistanceToEnd(road.Length), s.dt, s.rng.Float64(), s.cfg.Kinematics)
	v.Distance += v.Vel * s.dt

	res, err := road.Lane(laneID.Dir).UpdatePosition(v.ID, v.Pos)
	if err != nil {
		return err
	}
	if !res.Exited {
		v.Ahead = res.Ahead
		return nil
	}

	v.LeaveLane()
	at := res.Terminus
	if at == v.Destination {
		v.State = domain.StateCompleted
		return nil
	}

	_, hop, err := routes.BestNextHop(ctx, at, v.Destination, &laneID.Road)
	if err != nil {
		return err
	}
	if hop == nil {
		v.State = domain.StateStranded
		return nil
	}
	next, ok := roads.Road(*hop)
	if !ok || !hop.Has(at) {
		v.State = domain.StateStranded
		return nil
	}

	return s.enter(next, at, v)
}

func (s *Simulator) collectFinished() {
	var finished []domain.VehicleID
	for _, id := range s.activeIDs() {
		v := s.vehicles[id]
		if !v.State.Done() {
			continue
		}
		s.stats.RecordVehicle(v.Distance, v.Ticks)
		finished = append(finished, id)
	}

	for _, id := range finished {
		delete(s.vehicles, id)
	}

	if len(finished) > 0 {
		s.stats.MarkFlow(len(s.vehicles))
	} else {
		s.stats.SetActive(len(s.vehicles))
	}
}

// DeleteRoad removes a road and strands the vehicles that were on it.
func (s *Simulator) DeleteRoad(id domain.RoadID) (bool, error) {
	var ok bool
	err := s.net.WithLock(func(roads *domain.RoadMap, _ *RouteEngine) error {
		var evicted []domain.VehicleID
		evicted, ok = roads.DeleteRoad(id)
		s.strand(evicted)
		return nil
	})
	return ok, err
}

// DeleteIntersection removes an intersection with its roads and strands their vehicles.
func (s *Simulator) DeleteIntersection(id domain.IntersectionID) (bool, error) {
	var ok bool
	err := s.net.WithLock(func(roads *domain.RoadMap, _ *RouteEngine) error {
		var evicted []domain.VehicleID
		evicted, ok = roads.DeleteIntersection(id)
		s.strand(evicted)
		return nil
	})
	return ok, err
}

func (s *Simulator) strand(ids []domain.VehicleID) {
	for _, id := range ids {
		if v, ok := s.vehicles[id]; ok {
			v.LeaveLane()
			v.State = domain.StateStranded
		}
	}
}

// Stats returns a snapshot of the running statistics.
func (s *Simulator) Stats() (domain.StatsSnapshot, error) {
	var snap domain.StatsSnapshot
	err := s.net.WithLock(func(*domain.RoadMap, *RouteEngine) error {
		snap = s.stats.Snapshot()
		return nil
	})
	return snap, err
}

// Vehicles returns copies of the active vehicles ordered by id.
func (s *Simulator) Vehicles() ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	err := s.net.WithLock(func(*domain.RoadMap, *RouteEngine) error {
		for _, id := range s.activeIDs() {
			out = append(out, *s.vehicles[id])
		}
		return nil
	})
	return out, err
}

func (s *Simulator) activeIDs() []domain.VehicleID {
	ids := lo.Keys(s.vehicles)
	slices.Sort(ids)
	return ids
}

func uniform(rng *rand.Rand, from, to float64) float64 {
	return from + rng.Float64()*(to-from)
}
