package ports

import "traffic-reroute-service/internal/domain"

// Contract for mapping an image-space detection to the lane it is on.
type LaneClassifier interface {
	Classify(x, y float64) (domain.LaneID, bool)
}
