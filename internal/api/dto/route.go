package dto

// Cost is omitted when the destination is unreachable, since JSON has no infinity.
type RouteResponse struct {
	From      uint32   `json:"from"`
	To        uint32   `json:"to"`
	Reachable bool     `json:"reachable"`
	Cost      *float64 `json:"cost,omitempty"`
	Road      *string  `json:"road,omitempty"`
}

type SetCostRequest struct {
	Road     string   `json:"road"`
	Forward  *float64 `json:"forward"`
	Backward *float64 `json:"backward"`
}

type SetCostResponse struct {
	Road     string   `json:"road"`
	Forward  *float64 `json:"forward,omitempty"`
	Backward *float64 `json:"backward,omitempty"`
}
