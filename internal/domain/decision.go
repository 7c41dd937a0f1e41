package domain

// DecisionPoint is a place where a driver arriving on Road at Intersection is shown
// which road to take next for each destination.
type DecisionPoint struct {
	Road         RoadID
	Intersection IntersectionID
	Routes       []SignalRoute
}

// SignalRoute maps each candidate next road toward Destination to a named signal.
type SignalRoute struct {
	Destination IntersectionID
	Signals     map[RoadID]string
}
