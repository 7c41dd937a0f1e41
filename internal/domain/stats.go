package domain

// Running averages reset after this many samples to bound numeric drift.
const defaultAvgClearThreshold = 10000

// StatsManager aggregates throughput and realized speed of finished vehicles.
type StatsManager struct {
	CompletedCount int
	VehiclesOnRoad int

	AvgFlux               float64
	FluxAvgClearThreshold float64
	fluxSum               float64
	fluxN                 float64

	AvgVelocity          float64
	VelAvgClearThreshold float64
	velSum               float64
	velN                 float64

	lastFlowTick int
	tick         int
}

func NewStatsManager() *StatsManager {
	return &StatsManager{
		FluxAvgClearThreshold: defaultAvgClearThreshold,
		VelAvgClearThreshold:  defaultAvgClearThreshold,
	}
}

// Tick advances the stats clock by one simulation tick.
func (s *StatsManager) Tick() { s.tick++ }

// MarkFlow records the tick of the latest completion batch and the active vehicle count.
func (s *StatsManager) MarkFlow(active int) {
	s.lastFlowTick = s.tick
	s.VehiclesOnRoad = active
}

// SetActive updates the active vehicle count without touching the flow clock.
func (s *StatsManager) SetActive(active int) {
	s.VehiclesOnRoad = active
}

// RecordVehicle adds one finished vehicle.
func (s *StatsManager) RecordVehicle(distance float64, ticks int) {
	s.CompletedCount++

	if gap := s.tick - s.lastFlowTick; gap > 0 {
		s.fluxSum += 1 / float64(gap)
		s.fluxN++
		s.AvgFlux = s.fluxSum / s.fluxN
	}

	if ticks > 0 {
		s.velSum += distance / float64(ticks)
		s.velN++
		s.AvgVelocity = s.velSum / s.velN
	}

	if s.fluxN > s.FluxAvgClearThreshold {
		s.fluxSum = 0
		s.fluxN = 0
	}
	if s.velN > s.VelAvgClearThreshold {
		s.velSum = 0
		s.velN = 0
	}
}

// Reset clears the completed vehicle counter.
func (s *StatsManager) Reset() {
	s.CompletedCount = 0
}

// StatsSnapshot is a copy of the public statistics.
type StatsSnapshot struct {
	Ticks          int
	CompletedCount int
	VehiclesOnRoad int
	AvgFlux        float64
	AvgVelocity    float64
}

func (s *StatsManager) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Ticks:          s.tick,
		CompletedCount: s.CompletedCount,
		VehiclesOnRoad: s.VehiclesOnRoad,
		AvgFlux:        s.AvgFlux,
		AvgVelocity:    s.AvgVelocity,
	}
}
