package domain

import (
	"fmt"
	"log"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RoadMap is the road network graph: intersections, roads and their lanes.
// It is not safe for concurrent use; share it through services.Network.
type RoadMap struct {
	intersections     map[IntersectionID]*Intersection
	intersectionOrder []IntersectionID
	roads             map[RoadID]*Road
	roadOrder         []RoadID
	version           uint64
}

func NewRoadMap() *RoadMap {
	return &RoadMap{
		intersections: make(map[IntersectionID]*Intersection),
		roads:         make(map[RoadID]*Road),
	}
}

// Version changes on every topology edit.
func (m *RoadMap) Version() uint64 { return m.version }

// CreateIntersection adds an intersection, or moves an existing one to pos.
func (m *RoadMap) CreateIntersection(id IntersectionID, pos orb.Point) *Intersection {
	if in, ok := m.intersections[id]; ok {
		in.Pos = pos
		return in
	}

	in := NewIntersection(id, pos)
	m.intersections[id] = in
	m.intersectionOrder = append(m.intersectionOrder, id)
	m.version++
	return in
}

// CreateRoad connects two existing intersections. A non-positive length is
// replaced by the planar distance between the intersection positions.
func (m *RoadMap) CreateRoad(a, b IntersectionID, length float64) (RoadID, error) {
	id := RoadID{A: a, B: b}

	ia, ok := m.intersections[a]
	if !ok {
		return id, fmt.Errorf("create road %s: intersection %d: %w", id, a, ErrUnknownIntersection)
	}
	ib, ok := m.intersections[b]
	if !ok {
		return id, fmt.Errorf("create road %s: intersection %d: %w", id, b, ErrUnknownIntersection)
	}
	if _, exists := m.roads[id]; exists {
		return id, fmt.Errorf("create road %s: %w", id, ErrRoadExists)
	}

	if length <= 0 {
		length = planar.Distance(ia.Pos, ib.Pos)
	}

	m.roads[id] = NewRoad(id, length, ia.Pos, ib.Pos)
	m.roadOrder = append(m.roadOrder, id)
	ia.connect(id)
	ib.connect(id)
	m.version++

	return id, nil
}

// DeleteRoad removes a road and returns the vehicles that were on it.
func (m *RoadMap) DeleteRoad(id RoadID) ([]VehicleID, bool) {
	road, ok := m.roads[id]
	if !ok {
		return nil, false
	}

	evicted := road.Occupants()
	delete(m.roads, id)
	m.roadOrder = slices.DeleteFunc(m.roadOrder, func(r RoadID) bool { return r == id })

	if in, ok := m.intersections[id.A]; ok {
		in.disconnect(id)
	}
	if in, ok := m.intersections[id.B]; ok {
		in.disconnect(id)
	}
	m.version++

	return evicted, true
}

// DeleteIntersection removes an intersection and every incident road,
// returning the vehicles evicted from those roads.
func (m *RoadMap) DeleteIntersection(id IntersectionID) ([]VehicleID, bool) {
	in, ok := m.intersections[id]
	if !ok {
		return nil, false
	}

	var evicted []VehicleID
	for _, road := range in.Roads() {
		vs, _ := m.DeleteRoad(road)
		evicted = append(evicted, vs...)
	}

	delete(m.intersections, id)
	m.intersectionOrder = slices.DeleteFunc(m.intersectionOrder, func(i IntersectionID) bool { return i == id })
	m.version++

	return evicted, true
}

func (m *RoadMap) Intersection(id IntersectionID) (*Intersection, bool) {
	in, ok := m.intersections[id]
	return in, ok
}

func (m *RoadMap) Road(id RoadID) (*Road, bool) {
	r, ok := m.roads[id]
	return r, ok
}

// Intersections returns all intersections in creation order.
func (m *RoadMap) Intersections() []*Intersection {
	out := make([]*Intersection, 0, len(m.intersectionOrder))
	for _, id := range m.intersectionOrder {
		out = append(out, m.intersections[id])
	}
	return out
}

// Roads returns all roads in creation order.
func (m *RoadMap) Roads() []*Road {
	out := make([]*Road, 0, len(m.roadOrder))
	for _, id := range m.roadOrder {
		out = append(out, m.roads[id])
	}
	return out
}

func (m *RoadMap) RoadLength(id RoadID) (float64, bool) {
	r, ok := m.roads[id]
	if !ok {
		return 0, false
	}
	return r.Length, true
}

// SetCost writes dynamic cost components of a road. Unknown roads are logged and ignored.
func (m *RoadMap) SetCost(id RoadID, forward, backward *float64) bool {
	r, ok := m.roads[id]
	if !ok {
		log.Printf("set cost: no such road road=%s", id)
		return false
	}
	r.SetCost(forward, backward)
	return true
}

// Update runs the end-of-tick update of every road.
func (m *RoadMap) Update(velocities VelocitySource, c CostCoefficients) {
	for _, id := range m.roadOrder {
		m.roads[id].Update(velocities, c)
	}
}
