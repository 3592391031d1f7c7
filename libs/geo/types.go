package geo

import "time"

// Source identifies how a position fix was obtained.
type Source string

const (
	SourceGPS     Source = "gps"
	SourceNetwork Source = "network"
	SourcePassive Source = "passive"
)

// Coordinate is an immutable geographic position with optional motion data.
// Heading and Speed are negative when the fix does not carry them.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Altitude  float64 `json:"altitude,omitempty"`
	Heading   float64 `json:"heading,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
}

// TimedLocation is a single position sample delivered by a device.
type TimedLocation struct {
	Coordinate
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
}

// BoundingBox is the axis-aligned box enclosing a point set.
type BoundingBox struct {
	NorthEast Coordinate `json:"northeast"`
	SouthWest Coordinate `json:"southwest"`
}
