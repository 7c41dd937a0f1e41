package domain

import (
	"fmt"
	"slices"
)

// LaneEntry is a vehicle and its position along a lane.
type LaneEntry struct {
	ID  VehicleID
	Pos float64
}

// LaneEntryInfo is returned to a vehicle entering a lane.
type LaneEntryInfo struct {
	Ahead    *LaneEntry
	Dir      float64
	Length   float64
	StartPos float64
}

// LaneUpdate is returned for a position submission. When Exited is set the
// vehicle has left the lane at Terminus and Ahead is nil.
type LaneUpdate struct {
	Ahead    *LaneEntry
	Exited   bool
	Terminus IntersectionID
}

// VelocitySource resolves the current velocity of a lane occupant.
type VelocitySource interface {
	Velocity(id VehicleID) (float64, bool)
}

// Lane is an ordered occupancy queue along one direction of a road.
//
// Positions submitted during a tick are collected in a write buffer and merged into
// the authoritative order by Update at the end of the tick. After Update the order is
// monotonic in the direction of travel and each entry knows the entry directly ahead.
type Lane struct {
	ID       LaneID
	length   float64
	dir      float64
	startPos float64
	endPos   float64

	occupants map[VehicleID]uint64 // value is entry sequence
	seq       uint64
	order     []LaneEntry
	ahead     map[VehicleID]LaneEntry
	pending   map[VehicleID]float64

	dynamicCost float64
}

func NewLane(road RoadID, length, startPos, endPos float64) *Lane {
	dir := 1.0
	lane := Forward
	if startPos > endPos {
		dir = -1.0
		lane = Backward
	}

	return &Lane{
		ID:        LaneID{Road: road, Dir: lane},
		length:    length,
		dir:       dir,
		startPos:  startPos,
		endPos:    endPos,
		occupants: make(map[VehicleID]uint64),
		ahead:     make(map[VehicleID]LaneEntry),
		pending:   make(map[VehicleID]float64),
	}
}

func (l *Lane) Length() float64      { return l.length }
func (l *Lane) Dir() float64         { return l.dir }
func (l *Lane) DynamicCost() float64 { return l.dynamicCost }
func (l *Lane) Len() int             { return len(l.occupants) }

// Contains reports whether id currently occupies the lane.
func (l *Lane) Contains(id VehicleID) bool {
	_, ok := l.occupants[id]
	return ok
}

// Entries returns a copy of the ordered occupancy sequence as of the last Update.
func (l *Lane) Entries() []LaneEntry {
	return slices.Clone(l.order)
}

// Ahead returns the entry directly ahead of id as of the last Update.
func (l *Lane) Ahead(id VehicleID) (LaneEntry, bool) {
	e, ok := l.ahead[id]
	return e, ok
}

// Enter places the vehicle at the lane start. The vehicle ahead is the occupant
// that entered most recently, which is the rearmost one in normal traffic.
func (l *Lane) Enter(id VehicleID) (LaneEntryInfo, error) {
	if l.Contains(id) {
		return LaneEntryInfo{}, fmt.Errorf("enter lane %s: vehicle %d: %w", l.ID, id, ErrAlreadyOnLane)
	}

	var ahead *LaneEntry
	var best uint64
	for other, seq := range l.occupants {
		if ahead != nil && seq < best {
			continue
		}
		if pos, ok := l.position(other); ok {
			best = seq
			ahead = &LaneEntry{ID: other, Pos: pos}
		}
	}

	l.seq++
	l.occupants[id] = l.seq
	l.pending[id] = l.startPos

	return LaneEntryInfo{
		Ahead:    ahead,
		Dir:      l.dir,
		Length:   l.length,
		StartPos: l.startPos,
	}, nil
}

// UpdatePosition submits a new position for an occupant. A position at or past the
// lane end removes the vehicle and reports the intersection at the lane terminus.
func (l *Lane) UpdatePosition(id VehicleID, pos float64) (LaneUpdate, error) {
	if !l.Contains(id) {
		return LaneUpdate{}, fmt.Errorf("update lane %s: vehicle %d: %w", l.ID, id, ErrNotOnLane)
	}

	if l.dir*(l.endPos-pos) > 0 {
		l.pending[id] = pos
		var ahead *LaneEntry
		if e, ok := l.ahead[id]; ok {
			ahead = &e
		}
		return LaneUpdate{Ahead: ahead}, nil
	}

	l.Remove(id)
	return LaneUpdate{Exited: true, Terminus: l.ID.Terminus()}, nil
}

// Remove drops a vehicle from the lane without an exit signal.
func (l *Lane) Remove(id VehicleID) {
	delete(l.occupants, id)
	delete(l.pending, id)
}

// Occupants returns the ids of all vehicles on the lane.
func (l *Lane) Occupants() []VehicleID {
	out := make([]VehicleID, 0, len(l.occupants))
	for id := range l.occupants {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Update merges the write buffer into the ordered sequence, rebuilds the
// vehicle-ahead relation and recomputes the dynamic cost.
func (l *Lane) Update(velocities VelocitySource, c CostCoefficients) {
	next := make([]LaneEntry, 0, len(l.occupants))
	seen := make(map[VehicleID]struct{}, len(l.occupants))
	for _, e := range l.order {
		if !l.Contains(e.ID) {
			continue
		}
		if pos, ok := l.pending[e.ID]; ok {
			e.Pos = pos
		}
		next = append(next, e)
		seen[e.ID] = struct{}{}
	}

	entrants := make([]VehicleID, 0)
	for id := range l.pending {
		if _, ok := seen[id]; !ok {
			entrants = append(entrants, id)
		}
	}
	slices.SortFunc(entrants, func(a, b VehicleID) int {
		return compareUint64(l.occupants[b], l.occupants[a])
	})
	for _, id := range entrants {
		next = append(next, LaneEntry{ID: id, Pos: l.pending[id]})
	}

	dir := l.dir
	slices.SortStableFunc(next, func(a, b LaneEntry) int {
		return compareFloat(dir*a.Pos, dir*b.Pos)
	})

	l.order = next
	clear(l.pending)

	clear(l.ahead)
	for i := 0; i+1 < len(l.order); i++ {
		l.ahead[l.order[i].ID] = l.order[i+1]
	}

	l.updateDynamicCost(velocities, c)
}

func (l *Lane) updateDynamicCost(velocities VelocitySource, c CostCoefficients) {
	vels := make([]float64, 0, len(l.order))
	if velocities != nil {
		for _, e := range l.order {
			if v, ok := velocities.Velocity(e.ID); ok {
				vels = append(vels, v)
			}
		}
	}
	l.dynamicCost = LaneCost(len(l.order), l.length, vels, c)
}

// RearGap is the distance between the lane start and the rearmost occupant,
// or the lane length when the lane is empty.
func (l *Lane) RearGap() float64 {
	gap := l.length
	for id := range l.occupants {
		if pos, ok := l.position(id); ok {
			if d := l.dir * (pos - l.startPos); d < gap {
				gap = d
			}
		}
	}
	return gap
}

func (l *Lane) position(id VehicleID) (float64, bool) {
	if pos, ok := l.pending[id]; ok {
		return pos, true
	}
	for _, e := range l.order {
		if e.ID == id {
			return e.Pos, true
		}
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
