package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"

	cron "github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/geotrack/cli/tracker/server"
	"github.com/fieldops/geotrack/cli/tracker/storage"
	"github.com/fieldops/geotrack/libs/geofence"
	"github.com/fieldops/geotrack/libs/tracking"
)

// Recorder persists tracking records. Both the synchronous and the async
// repository satisfy it.
type Recorder interface {
	Save(rec storage.Record) error
}

// Hub owns one tracking session per reporting technician. Incoming device
// reports are routed to the technician's session, which runs geofence
// evaluation and history bookkeeping; the resulting samples and fence
// events are handed to the recorder.
type Hub struct {
	mu    sync.Mutex
	units map[string]*unit

	recorder    Recorder
	settings    tracking.Settings
	fences      *geofence.Engine
	fenceSource FenceSource
	reloadExpr  string

	cronScheduler *cron.Cron
}

type unit struct {
	provider *streamProvider
	session  *tracking.Session
	unsubs   []func()
}

func NewHub(recorder Recorder, settings tracking.Settings, fenceSource FenceSource, reloadExpr string) *Hub {
	return &Hub{
		units:       make(map[string]*unit),
		recorder:    recorder,
		settings:    settings,
		fences:      geofence.NewEngine(),
		fenceSource: fenceSource,
		reloadExpr:  reloadExpr,
	}
}

// Initialize loads the fence set and schedules its periodic reload.
func (h *Hub) Initialize() error {
	if h.fenceSource == nil {
		return nil
	}

	if err := h.reloadFences(); err != nil {
		return fmt.Errorf("failed to load the fence set: %w", err)
	}

	if h.reloadExpr == "" {
		return nil
	}

	h.cronScheduler = cron.New()
	_, err := h.cronScheduler.AddFunc(h.reloadExpr, func() {
		log.Info("Running scheduled fence reload")
		if err := h.reloadFences(); err != nil {
			log.Errorf("Fence reload failed: %v", err)
		} else {
			log.Info("Fence set reloaded")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule fence reload: %w", err)
	}

	h.cronScheduler.Start()
	log.Infof("Scheduled fence reload with expression %q", h.reloadExpr)
	return nil
}

// Shutdown stops the reload schedule and every active session.
func (h *Hub) Shutdown() {
	if h.cronScheduler != nil {
		h.cronScheduler.Stop()
	}

	h.mu.Lock()
	units := make([]*unit, 0, len(h.units))
	for _, u := range h.units {
		units = append(units, u)
	}
	h.mu.Unlock()

	for _, u := range units {
		u.session.Stop()
		for _, unsub := range u.unsubs {
			unsub()
		}
	}
}

func (h *Hub) reloadFences() error {
	fences, err := h.fenceSource.LoadFences()
	if err != nil {
		return err
	}
	return h.fences.Replace(fences)
}

// Fences exposes the shared fence set for the API layer.
func (h *Hub) Fences() *geofence.Engine {
	return h.fences
}

// Session returns the tracking session of a technician, if one exists.
func (h *Hub) Session(technicianID string) (*tracking.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.units[technicianID]
	if !ok {
		return nil, false
	}
	return u.session, true
}

// Technicians lists the technicians with an active session, sorted.
func (h *Hub) Technicians() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.units))
	for id := range h.units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HandleReport routes one device report into the technician's session,
// creating the session on first contact.
func (h *Hub) HandleReport(rep server.Report) error {
	u, err := h.unit(rep)
	if err != nil {
		return err
	}

	u.session.SetMetadata(sampleMetadata(rep))
	u.provider.Push(rep.Location())
	return nil
}

func sampleMetadata(rep server.Report) tracking.SampleMetadata {
	m := tracking.SampleMetadata{IsOnline: true, NetworkType: rep.NetworkType}
	if rep.IsOnline != nil {
		m.IsOnline = *rep.IsOnline
	}
	if m.NetworkType == "" {
		m.NetworkType = "unknown"
	}
	return m
}

func (h *Hub) unit(rep server.Report) (*unit, error) {
	h.mu.Lock()
	if u, ok := h.units[rep.TechnicianID]; ok {
		h.mu.Unlock()
		return u, nil
	}
	h.mu.Unlock()

	provider := newStreamProvider()
	session := tracking.NewSession(provider, h.settings,
		tracking.WithFenceEngine(h.fences),
		tracking.WithLogger(log.WithFields(log.Fields{
			"component":  "tracking",
			"technician": rep.TechnicianID,
		})),
	)

	u := &unit{provider: provider, session: session}
	u.unsubs = append(u.unsubs,
		session.Subscribe(tracking.EventLocationUpdate, func(ev tracking.Event) {
			if err := h.recorder.Save(storage.SampleRecord{Sample: *ev.Sample}); err != nil {
				log.WithField("err", err).Error("Failed to save sample")
			}
		}),
		session.Subscribe(tracking.EventGeoFenceEnter, h.saveFenceEvent),
		session.Subscribe(tracking.EventGeoFenceExit, h.saveFenceEvent),
		session.Subscribe(tracking.EventError, func(ev tracking.Event) {
			entry := log.WithFields(log.Fields{"technician": rep.TechnicianID, "err": ev.Err})
			if ev.Terminal {
				entry.Error("Tracking halted")
			} else {
				entry.Warn("Tracking error")
			}
		}),
	)

	if err := session.Start(context.Background(), rep.TechnicianID, rep.WorkOrderID); err != nil {
		for _, unsub := range u.unsubs {
			unsub()
		}
		return nil, fmt.Errorf("failed to start tracking for %s: %w", rep.TechnicianID, err)
	}

	h.mu.Lock()
	if existing, ok := h.units[rep.TechnicianID]; ok {
		// Another report created the session first.
		h.mu.Unlock()
		session.Stop()
		for _, unsub := range u.unsubs {
			unsub()
		}
		return existing, nil
	}
	h.units[rep.TechnicianID] = u
	h.mu.Unlock()

	return u, nil
}

func (h *Hub) saveFenceEvent(ev tracking.Event) {
	if err := h.recorder.Save(storage.FenceEventRecord{Event: *ev.FenceEvent}); err != nil {
		log.WithField("err", err).Error("Failed to save fence event")
	}
}
