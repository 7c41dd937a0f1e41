package domain

// VehicleState is the lifecycle state of a simulated vehicle.
type VehicleState int

const (
	StateSpawning VehicleState = iota
	StateTraveling
	StateRerouting
	StateCompleted
	// StateStranded marks a vehicle that found no further route. Statistics count
	// it exactly like a completed vehicle.
	StateStranded
	// StateUnknown is a vehicle that never entered a lane; it is inert.
	StateUnknown
)

func (s VehicleState) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateTraveling:
		return "traveling"
	case StateRerouting:
		return "rerouting"
	case StateCompleted:
		return "completed"
	case StateStranded:
		return "stranded"
	default:
		return "unknown"
	}
}

// Done reports whether the vehicle should leave the active set.
func (s VehicleState) Done() bool {
	return s == StateCompleted || s == StateStranded
}

// Kinematics holds the car-following and stochastic braking parameters.
type Kinematics struct {
	FollowDivisor float64 // gap at which the follower reaches max velocity
	BrakeZone     float64 // distance before the lane end where vehicles slow down
	AccelScale    float64 // velocity difference that yields full acceleration
	StopChance    float64 // per-tick chance of a full stop
	SlowChance    float64 // per-tick chance of a partial slow-down
	SlowDivisor   float64
	FloorFraction float64 // random braking applies only above this fraction of max velocity
}

func DefaultKinematics() Kinematics {
	return Kinematics{
		FollowDivisor: 12,
		BrakeZone:     30,
		AccelScale:    5,
		StopChance:    0.0001,
		SlowChance:    0.001,
		SlowDivisor:   5,
		FloorFraction: 0.2,
	}
}

// Vehicle is one simulated car. Ahead is a non-owning association: an id and the
// position last reported by the lane, never a reference to the other vehicle.
type Vehicle struct {
	ID          VehicleID
	Lane        *LaneID
	Pos         float64
	Vel         float64
	Dir         float64
	MaxVel      float64
	Acc         float64
	Ahead       *LaneEntry
	Origin      IntersectionID
	Destination IntersectionID
	Distance    float64
	Ticks       int
	State       VehicleState
}

func NewVehicle(id VehicleID, origin, destination IntersectionID, maxVel, acc float64) *Vehicle {
	return &Vehicle{
		ID:          id,
		MaxVel:      maxVel,
		Vel:         maxVel,
		Acc:         acc,
		Origin:      origin,
		Destination: destination,
		State:       StateSpawning,
	}
}

// EnterLane applies the lane's entry response and sets the entry velocity.
func (v *Vehicle) EnterLane(lane LaneID, info LaneEntryInfo, vel float64) {
	v.Lane = &lane
	v.Ahead = info.Ahead
	v.Dir = info.Dir
	v.Pos = info.StartPos
	v.Vel = vel
	v.State = StateTraveling
}

// LeaveLane resets lane-bound state after an exit.
func (v *Vehicle) LeaveLane() {
	v.Lane = nil
	v.Dir = 0
	v.Vel = 0
	v.Ahead = nil
	v.State = StateRerouting
}

// DistanceToEnd is the remaining distance to the lane terminus.
func (v *Vehicle) DistanceToEnd(roadLength float64) float64 {
	if v.Lane == nil {
		return 0
	}
	if v.Lane.Dir == Forward {
		return roadLength - v.Pos
	}
	return v.Pos
}

// DesiredVelocity applies the proportional car-following law and braking before
// the intersection. The result is not clamped.
func (v *Vehicle) DesiredVelocity(distToEnd float64, k Kinematics) float64 {
	desired := v.MaxVel
	if v.Ahead != nil {
		desired = v.Dir * (v.Ahead.Pos - v.Pos) / k.FollowDivisor * v.MaxVel
	}
	if distToEnd <= k.BrakeZone {
		desired *= 0.5 + 0.5*distToEnd/k.BrakeZone
	}
	return desired
}

// Integrate advances velocity and position by dt. roll is a uniform sample in [0,1)
// driving stochastic braking. Acceleration is gradual, deceleration immediate.
func (v *Vehicle) Integrate(distToEnd, dt, roll float64, k Kinematics) {
	desired := v.DesiredVelocity(distToEnd, k)
	dv := desired - v.Vel

	v.Vel += v.Acc * clamp(dv/k.AccelScale, 0, 1) * dt
	v.Vel = clamp(v.Vel, 0, v.MaxVel)

	if v.Vel >= v.MaxVel*k.FloorFraction {
		if roll < k.StopChance {
			v.Vel = 0
		} else if roll < k.SlowChance {
			v.Vel /= k.SlowDivisor
		}
	}

	if dv < 0 {
		v.Vel = clamp(desired, 0, v.MaxVel)
	}

	v.Pos += v.Dir * v.Vel * dt
	v.Ticks++
}

// Velocity implements VelocitySource for a set of vehicles keyed by id.
type VehicleSet map[VehicleID]*Vehicle

func (s VehicleSet) Velocity(id VehicleID) (float64, bool) {
	v, ok := s[id]
	if !ok {
		return 0, false
	}
	return v.Vel, true
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
