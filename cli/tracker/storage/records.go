package storage

import (
	"encoding/json"

	"github.com/fieldops/geotrack/libs/geofence"
	"github.com/fieldops/geotrack/libs/tracking"
)

const (
	KindSample     = "sample"
	KindFenceEvent = "fence_event"
)

// Record is a persistable tracking artifact. Kind routes records inside
// connectors (subjects, routing keys, tables); Key identifies the
// technician the record belongs to.
type Record interface {
	Kind() string
	Key() string
	ToBytes() ([]byte, error)
}

// SampleRecord wraps a location sample for persistence.
type SampleRecord struct {
	tracking.Sample
}

func (r SampleRecord) Kind() string { return KindSample }
func (r SampleRecord) Key() string  { return r.TechnicianID }

func (r SampleRecord) ToBytes() ([]byte, error) {
	return json.Marshal(r.Sample)
}

// FenceEventRecord wraps a geofence transition for persistence.
type FenceEventRecord struct {
	geofence.Event
}

func (r FenceEventRecord) Kind() string { return KindFenceEvent }
func (r FenceEventRecord) Key() string  { return r.TechnicianID }

func (r FenceEventRecord) ToBytes() ([]byte, error) {
	return json.Marshal(r.Event)
}
