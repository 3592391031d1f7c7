package domain

import (
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/geotrack/cli/tracker/server"
	"github.com/fieldops/geotrack/cli/tracker/storage"
	"github.com/fieldops/geotrack/libs/geo"
	"github.com/fieldops/geotrack/libs/geofence"
	"github.com/fieldops/geotrack/libs/tracking"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []storage.Record
}

func (r *memoryRecorder) Save(rec storage.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRecorder) byKind(kind string) []storage.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.Record
	for _, rec := range r.records {
		if rec.Kind() == kind {
			out = append(out, rec)
		}
	}
	return out
}

func report(technician string, lat, lon float64) server.Report {
	return server.Report{
		TechnicianID: technician,
		WorkOrderID:  "wo-1",
		Latitude:     lat,
		Longitude:    lon,
		Source:       "gps",
		Timestamp:    time.Now().UTC(),
	}
}

func TestHubCreatesSessionOnFirstReport(t *testing.T) {
	log.SetOutput(io.Discard)

	recorder := &memoryRecorder{}
	hub := NewHub(recorder, tracking.DefaultSettings(), nil, "")
	require.NoError(t, hub.Initialize())
	defer hub.Shutdown()

	require.NoError(t, hub.HandleReport(report("tech-1", 38.0678, -120.5386)))

	session, ok := hub.Session("tech-1")
	require.True(t, ok)
	assert.Equal(t, tracking.StateTracking, session.State())

	loc, ok := session.LastKnown()
	require.True(t, ok)
	assert.InDelta(t, 38.0678, loc.Latitude, 1e-9)

	samples := recorder.byKind(storage.KindSample)
	require.Len(t, samples, 1)
	assert.Equal(t, "tech-1", samples[0].Key())

	assert.Equal(t, []string{"tech-1"}, hub.Technicians())
}

func TestHubRoutesReportsPerTechnician(t *testing.T) {
	log.SetOutput(io.Discard)

	recorder := &memoryRecorder{}
	hub := NewHub(recorder, tracking.DefaultSettings(), nil, "")
	defer hub.Shutdown()

	require.NoError(t, hub.HandleReport(report("tech-1", 10, 10)))
	require.NoError(t, hub.HandleReport(report("tech-2", 20, 20)))
	require.NoError(t, hub.HandleReport(report("tech-1", 10.001, 10.001)))

	assert.Equal(t, []string{"tech-1", "tech-2"}, hub.Technicians())

	first, _ := hub.Session("tech-1")
	assert.Len(t, first.History(), 2)

	second, _ := hub.Session("tech-2")
	assert.Len(t, second.History(), 1)
}

func TestHubRecordsFenceTransitions(t *testing.T) {
	log.SetOutput(io.Discard)

	recorder := &memoryRecorder{}
	source := NewStaticSource([]geofence.Fence{{
		ID:           "site-1",
		Name:         "Install site",
		Center:       geo.Coordinate{Latitude: 38.0678, Longitude: -120.5386},
		RadiusMeters: 150,
		Type:         geofence.FenceWorkSite,
	}})

	hub := NewHub(recorder, tracking.DefaultSettings(), source, "")
	require.NoError(t, hub.Initialize())
	defer hub.Shutdown()

	assert.Len(t, hub.Fences().List(), 1)

	// First sample outside the fence, second inside, third back outside.
	require.NoError(t, hub.HandleReport(report("tech-1", 38.1, -120.6)))
	require.NoError(t, hub.HandleReport(report("tech-1", 38.0678, -120.5386)))
	require.NoError(t, hub.HandleReport(report("tech-1", 38.1, -120.6)))

	events := recorder.byKind(storage.KindFenceEvent)
	require.Len(t, events, 2)

	enter := events[0].(storage.FenceEventRecord)
	assert.Equal(t, geofence.EventEnter, enter.Event.Type)
	assert.Equal(t, "site-1", enter.Event.FenceID)

	exit := events[1].(storage.FenceEventRecord)
	assert.Equal(t, geofence.EventExit, exit.Event.Type)
}

func TestHubAppliesReportMetadata(t *testing.T) {
	log.SetOutput(io.Discard)

	recorder := &memoryRecorder{}
	hub := NewHub(recorder, tracking.DefaultSettings(), nil, "")
	defer hub.Shutdown()

	offline := false
	rep := report("tech-1", 10, 10)
	rep.IsOnline = &offline
	rep.NetworkType = "lte"
	require.NoError(t, hub.HandleReport(rep))

	session, _ := hub.Session("tech-1")
	history := session.History()
	require.Len(t, history, 1)
	assert.False(t, history[0].Metadata.IsOnline)
	assert.Equal(t, "lte", history[0].Metadata.NetworkType)
}

func TestHubRejectsWhenTrackingDisabled(t *testing.T) {
	log.SetOutput(io.Discard)

	settings := tracking.DefaultSettings()
	settings.Enabled = false

	hub := NewHub(&memoryRecorder{}, settings, nil, "")
	defer hub.Shutdown()

	err := hub.HandleReport(report("tech-1", 10, 10))
	assert.ErrorIs(t, err, tracking.ErrTrackingDisabled)

	_, ok := hub.Session("tech-1")
	assert.False(t, ok)
}

func TestStaticSourceReturnsCopy(t *testing.T) {
	fences := []geofence.Fence{{ID: "a", Center: geo.Coordinate{}, RadiusMeters: 10}}
	source := NewStaticSource(fences)

	loaded, err := source.LoadFences()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	loaded[0].ID = "mutated"
	again, _ := source.LoadFences()
	assert.Equal(t, "a", again[0].ID)
}
