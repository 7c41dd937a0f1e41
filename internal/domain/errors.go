package domain

import "errors"

var (
	ErrUnknownIntersection = errors.New("unknown intersection")
	ErrUnknownRoad         = errors.New("unknown road")
	ErrRoadExists          = errors.New("road already exists")
	ErrNotOnLane           = errors.New("vehicle is not on lane")
	ErrAlreadyOnLane       = errors.New("vehicle is already on lane")
	ErrNotAnEndpoint       = errors.New("intersection is not an endpoint of road")
)
