package dto

type StatsResponse struct {
	Ticks          int     `json:"ticks"`
	CompletedCount int     `json:"completed_count"`
	VehiclesOnRoad int     `json:"vehicles_on_road"`
	AvgFlux        float64 `json:"avg_flux"`
	AvgVelocity    float64 `json:"avg_velocity"`
}

type VehicleResponse struct {
	ID          uint32  `json:"id"`
	State       string  `json:"state"`
	Lane        *string `json:"lane"`
	Pos         float64 `json:"pos"`
	Vel         float64 `json:"vel"`
	MaxVel      float64 `json:"max_vel"`
	Origin      uint32  `json:"origin"`
	Destination uint32  `json:"destination"`
	Distance    float64 `json:"distance"`
}

type ListVehiclesResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}

type DeleteResponse struct {
	Deleted string `json:"deleted"`
}
