package domain

// Smoothing term in the inverse-velocity penalty; keeps the cost finite near standstill.
const velocityEpsilon = 10e-2

// CostCoefficients weight the terms of a lane's dynamic cost.
type CostCoefficients struct {
	Density   float64
	Velocity  float64
	Clearance float64
}

// LaneCost derives a dynamic cost from lane occupancy and the average velocity of the
// occupants whose velocity is known. The clearance term is a placeholder and is always zero.
func LaneCost(occupancy int, length float64, velocities []float64, c CostCoefficients) float64 {
	if length <= 0 {
		return 0
	}

	densityTerm := c.Density * float64(occupancy) / length

	avgVel := 0.0
	if len(velocities) > 0 {
		for _, v := range velocities {
			avgVel += v
		}
		avgVel /= float64(len(velocities))
	}

	invVelocityTerm := 0.0
	if avgVel > 0 {
		invVelocityTerm = densityTerm * c.Velocity / (velocityEpsilon + avgVel)
	}
	clearanceTerm := densityTerm * c.Clearance * 0

	cost := densityTerm + invVelocityTerm + clearanceTerm
	if cost < 0 {
		return 0
	}
	return cost
}
