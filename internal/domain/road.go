package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Road is an undirected edge made of two opposite-direction lanes.
// Costs are indexed by direction: index 0 is leaving RoadID.A, index 1 leaving RoadID.B.
type Road struct {
	ID     RoadID
	Length float64
	P1     orb.Point
	P2     orb.Point

	costStatic  [2]float64
	costDynamic [2]float64
	lanes       [2]*Lane
}

func NewRoad(id RoadID, length float64, p1, p2 orb.Point) *Road {
	return &Road{
		ID:         id,
		Length:     length,
		P1:         p1,
		P2:         p2,
		costStatic: [2]float64{length, length},
		lanes: [2]*Lane{
			NewLane(id, length, 0, length),
			NewLane(id, length, length, 0),
		},
	}
}

// DirFrom returns the lane direction of travel when leaving from.
func (r *Road) DirFrom(from IntersectionID) int {
	if from == r.ID.A {
		return Forward
	}
	return Backward
}

// CostFrom is the cost of traversing the road when leaving from.
func (r *Road) CostFrom(from IntersectionID, useDynamic bool) float64 {
	d := r.DirFrom(from)
	cost := r.costStatic[d]
	if useDynamic {
		cost += r.costDynamic[d]
	}
	return cost
}

// DynamicCost returns the dynamic cost pair (forward, backward).
func (r *Road) DynamicCost() (float64, float64) {
	return r.costDynamic[Forward], r.costDynamic[Backward]
}

// SetCost overwrites the given dynamic cost components. Negative values clamp to zero.
func (r *Road) SetCost(forward, backward *float64) {
	if forward != nil {
		r.costDynamic[Forward] = max(*forward, 0)
	}
	if backward != nil {
		r.costDynamic[Backward] = max(*backward, 0)
	}
}

// Lane returns the lane travelling in direction dir.
func (r *Road) Lane(dir int) *Lane {
	if dir == Backward {
		return r.lanes[Backward]
	}
	return r.lanes[Forward]
}

// LaneFrom returns the lane a vehicle enters when leaving from.
func (r *Road) LaneFrom(from IntersectionID) *Lane {
	return r.lanes[r.DirFrom(from)]
}

// EnterFrom places a vehicle on the lane leaving from.
func (r *Road) EnterFrom(from IntersectionID, id VehicleID) (LaneID, LaneEntryInfo, error) {
	if !r.ID.Has(from) {
		return LaneID{}, LaneEntryInfo{}, fmt.Errorf("enter road %s from %d: %w", r.ID, from, ErrNotAnEndpoint)
	}
	lane := r.LaneFrom(from)
	info, err := lane.Enter(id)
	if err != nil {
		return LaneID{}, LaneEntryInfo{}, err
	}
	return lane.ID, info, nil
}

// DistInFrontFrom is the free space at the start of the lane leaving from.
func (r *Road) DistInFrontFrom(from IntersectionID) float64 {
	return r.LaneFrom(from).RearGap()
}

// Update runs the end-of-tick update of both lanes and copies their costs.
func (r *Road) Update(velocities VelocitySource, c CostCoefficients) {
	for d, lane := range r.lanes {
		lane.Update(velocities, c)
		r.costDynamic[d] = lane.DynamicCost()
	}
}

// Occupants returns every vehicle on either lane.
func (r *Road) Occupants() []VehicleID {
	return append(r.lanes[Forward].Occupants(), r.lanes[Backward].Occupants()...)
}
