package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// IntersectionID identifies a node of the road network.
type IntersectionID uint32

// VehicleID identifies a simulated or tracked vehicle.
type VehicleID uint32

// RoadID identifies a road by its two endpoints.
// Endpoint order is fixed at creation: A is the "forward" origin,
// so cost component 0 is the cost of leaving A and component 1 of leaving B.
type RoadID struct {
	A IntersectionID
	B IntersectionID
}

// Other returns the endpoint opposite to id.
func (r RoadID) Other(id IntersectionID) IntersectionID {
	if r.A == id {
		return r.B
	}
	return r.A
}

// Has reports whether id is one of the road's endpoints.
func (r RoadID) Has(id IntersectionID) bool {
	return r.A == id || r.B == id
}

func (r RoadID) String() string {
	return fmt.Sprintf("%d-%d", r.A, r.B)
}

// ParseRoadID parses the "a-b" form produced by RoadID.String.
func ParseRoadID(s string) (RoadID, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return RoadID{}, fmt.Errorf("parse road id %q: expected <a>-<b>", s)
	}

	ia, err := strconv.ParseUint(a, 10, 32)
	if err != nil {
		return RoadID{}, fmt.Errorf("parse road id %q: %w", s, err)
	}
	ib, err := strconv.ParseUint(b, 10, 32)
	if err != nil {
		return RoadID{}, fmt.Errorf("parse road id %q: %w", s, err)
	}

	return RoadID{A: IntersectionID(ia), B: IntersectionID(ib)}, nil
}

// Lane directions. Forward travels from RoadID.A to RoadID.B.
const (
	Forward  = 0
	Backward = 1
)

// LaneID is one of the two directional lanes of a road.
type LaneID struct {
	Road RoadID
	Dir  int
}

func (l LaneID) String() string {
	if l.Dir == Forward {
		return l.Road.String() + "/fwd"
	}
	return l.Road.String() + "/bck"
}

// Terminus returns the intersection a vehicle reaches at the end of the lane.
func (l LaneID) Terminus() IntersectionID {
	if l.Dir == Forward {
		return l.Road.B
	}
	return l.Road.A
}
