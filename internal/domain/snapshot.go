package domain

import "github.com/paulmach/orb"

// IntersectionView is a read-only copy of an intersection.
type IntersectionView struct {
	ID          IntersectionID
	Pos         orb.Point
	SpawnWeight float64
}

// RoadView is a read-only copy of a road. Index 0 of the pairs is the forward lane.
type RoadView struct {
	ID          RoadID
	Length      float64
	Geometry    orb.LineString
	StaticCost  [2]float64
	DynamicCost [2]float64
	Occupancy   [2]int
}

type NetworkSnapshot struct {
	Version       uint64
	Intersections []IntersectionView
	Roads         []RoadView
}

// Snapshot copies the current topology and costs in creation order.
func (m *RoadMap) Snapshot() NetworkSnapshot {
	snap := NetworkSnapshot{
		Version:       m.version,
		Intersections: make([]IntersectionView, 0, len(m.intersectionOrder)),
		Roads:         make([]RoadView, 0, len(m.roadOrder)),
	}

	for _, in := range m.Intersections() {
		snap.Intersections = append(snap.Intersections, IntersectionView{
			ID:          in.ID,
			Pos:         in.Pos,
			SpawnWeight: in.SpawnWeight,
		})
	}

	for _, r := range m.Roads() {
		snap.Roads = append(snap.Roads, RoadView{
			ID:          r.ID,
			Length:      r.Length,
			Geometry:    orb.LineString{r.P1, r.P2},
			StaticCost:  r.costStatic,
			DynamicCost: r.costDynamic,
			Occupancy:   [2]int{r.lanes[Forward].Len(), r.lanes[Backward].Len()},
		})
	}

	return snap
}
