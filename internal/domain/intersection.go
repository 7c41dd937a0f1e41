package domain

import "github.com/paulmach/orb"

// Intersection is a node of the road network.
// Pos is carried through for rendering and geometry only.
type Intersection struct {
	ID          IntersectionID
	Pos         orb.Point
	SpawnWeight float64

	// roads keeps insertion order; route search visits incident roads in this order.
	roads       []RoadID
	connections map[IntersectionID]int
}

func NewIntersection(id IntersectionID, pos orb.Point) *Intersection {
	return &Intersection{
		ID:          id,
		Pos:         pos,
		connections: make(map[IntersectionID]int),
	}
}

// Roads returns the incident roads in the order they were connected.
func (i *Intersection) Roads() []RoadID {
	out := make([]RoadID, len(i.roads))
	copy(out, i.roads)
	return out
}

// HasRoad reports whether road is incident to the intersection.
func (i *Intersection) HasRoad(road RoadID) bool {
	for _, r := range i.roads {
		if r == road {
			return true
		}
	}
	return false
}

// Neighbors returns the set of directly connected intersections.
func (i *Intersection) Neighbors() map[IntersectionID]struct{} {
	out := make(map[IntersectionID]struct{}, len(i.connections))
	for id := range i.connections {
		out[id] = struct{}{}
	}
	return out
}

func (i *Intersection) connect(road RoadID) {
	if i.HasRoad(road) {
		return
	}
	i.roads = append(i.roads, road)
	i.connections[road.Other(i.ID)]++
}

// Parallel roads between the same pair keep the neighbor until the last one goes.
func (i *Intersection) disconnect(road RoadID) {
	for idx, r := range i.roads {
		if r != road {
			continue
		}
		i.roads = append(i.roads[:idx], i.roads[idx+1:]...)
		other := road.Other(i.ID)
		if i.connections[other] <= 1 {
			delete(i.connections, other)
		} else {
			i.connections[other]--
		}
		return
	}
}
