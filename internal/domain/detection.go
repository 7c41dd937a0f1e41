package domain

// Detection is one vehicle observation from the sensor feed, in image coordinates.
type Detection struct {
	ID       uint64
	X        float64
	Y        float64
	Velocity float64
}
