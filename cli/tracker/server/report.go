package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fieldops/geotrack/libs/geo"
)

// Report is one position fix sent by a field device. Devices write one
// JSON report per line over the TCP connection.
type Report struct {
	TechnicianID string    `json:"technician_id"`
	WorkOrderID  string    `json:"work_order_id,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     float64   `json:"accuracy,omitempty"`
	Altitude     float64   `json:"altitude,omitempty"`
	Heading      float64   `json:"heading,omitempty"`
	Speed        float64   `json:"speed,omitempty"`
	Source       string    `json:"source,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitempty"`
	IsOnline     *bool     `json:"is_online,omitempty"`
	NetworkType  string    `json:"network_type,omitempty"`
}

// Validate checks the fields a report cannot be processed without.
func (r Report) Validate() error {
	if r.TechnicianID == "" {
		return fmt.Errorf("technician_id is required")
	}
	if !geo.Validate(r.Latitude, r.Longitude) {
		return fmt.Errorf("invalid position: %s, %s",
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64))
	}
	return nil
}

// Location converts the report into a timed location. A zero timestamp
// means the device clock is not trusted and the receive time is used.
func (r Report) Location() geo.TimedLocation {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	source := geo.Source(r.Source)
	switch source {
	case geo.SourceGPS, geo.SourceNetwork, geo.SourcePassive:
	default:
		source = geo.SourceGPS
	}

	return geo.TimedLocation{
		Coordinate: geo.Coordinate{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Accuracy:  r.Accuracy,
			Altitude:  r.Altitude,
			Heading:   r.Heading,
			Speed:     r.Speed,
		},
		Timestamp: ts,
		Source:    source,
	}
}
