package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/geotrack/libs/geo"
	"github.com/fieldops/geotrack/libs/geofence"
)

// State is the session lifecycle phase.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StateTracking             State = "tracking"
)

const (
	// historyCap bounds the in-memory sample buffer; on overflow the buffer
	// is trimmed in one batch down to historyTrim most recent samples.
	historyCap  = 1000
	historyTrim = 500

	// permissionProbeTimeout bounds the fallback permission probe.
	permissionProbeTimeout = 5 * time.Second

	// deviceRequestTimeout is the underlying timeout for one-shot and watch
	// position requests.
	deviceRequestTimeout = 15 * time.Second

	// errorGraceDelay is the window between a recoverable device error and
	// the clean stop of the watch.
	errorGraceDelay = 5 * time.Second
)

// SampleMetadata carries device-side connectivity info attached to samples.
type SampleMetadata struct {
	IsOnline    bool   `json:"is_online"`
	NetworkType string `json:"network_type"`
}

// Sample is one history entry produced by the session.
type Sample struct {
	ID           string            `json:"id"`
	TechnicianID string            `json:"technician_id"`
	WorkOrderID  string            `json:"work_order_id,omitempty"`
	Location     geo.TimedLocation `json:"location"`
	Metadata     SampleMetadata    `json:"metadata"`
}

// Session owns a live position stream for one technician: permission
// negotiation, one-shot reads, a continuous watch with bounded history, and
// geofence evaluation on every accepted sample. A session owns at most one
// device watch handle; concurrent sessions need separate instances.
type Session struct {
	provider  Provider
	fences    *geofence.Engine
	listeners *listenerRegistry
	logger    *log.Entry

	mu           sync.Mutex
	settings     Settings
	state        State
	watch        WatchHandle
	permission   PermissionStatus
	history      []Sample
	lastKnown    *geo.TimedLocation
	technicianID string
	workOrderID  string
	metadata     SampleMetadata
	graceTimer   *time.Timer
}

// Option customizes a session at construction time.
type Option func(*Session)

// WithFenceEngine shares an externally managed fence set with the session.
func WithFenceEngine(e *geofence.Engine) Option {
	return func(s *Session) { s.fences = e }
}

// WithMetadata sets the connectivity metadata stamped onto every sample.
func WithMetadata(m SampleMetadata) Option {
	return func(s *Session) { s.metadata = m }
}

// WithLogger routes session logs through a prepared logrus entry.
func WithLogger(entry *log.Entry) Option {
	return func(s *Session) { s.logger = entry }
}

// NewSession builds an idle session around a device location provider.
func NewSession(provider Provider, settings Settings, opts ...Option) *Session {
	s := &Session{
		provider:   provider,
		settings:   settings,
		state:      StateIdle,
		permission: PermissionStatus{State: PermissionUnknown},
		listeners:  newListenerRegistry(),
		fences:     geofence.NewEngine(),
		metadata:   SampleMetadata{IsOnline: true, NetworkType: "unknown"},
		logger:     log.WithField("component", "tracking"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers a listener for one event class and returns its
// unsubscribe function. Fan-out is synchronous at emission time.
func (s *Session) Subscribe(t EventType, h Handler) func() {
	return s.listeners.subscribe(t, h)
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Fences exposes the session's geofence set.
func (s *Session) Fences() *geofence.Engine {
	return s.fences
}

// AddFence registers a fence, applying the configured default radius when
// none is given.
func (s *Session) AddFence(f geofence.Fence) error {
	if f.RadiusMeters == 0 {
		s.mu.Lock()
		f.RadiusMeters = s.settings.DefaultFenceRadius
		s.mu.Unlock()
	}
	return s.fences.Add(f)
}

// SetMetadata replaces the device metadata attached to subsequent samples.
func (s *Session) SetMetadata(m SampleMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = m
}

// History returns a copy of the bounded sample buffer, oldest first.
func (s *Session) History() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sample(nil), s.history...)
}

// LastKnown returns the most recent accepted location.
func (s *Session) LastKnown() (geo.TimedLocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastKnown == nil {
		return geo.TimedLocation{}, false
	}
	return *s.lastKnown, true
}

// CheckPermissions queries the platform permission API when the provider
// supports it. Otherwise it probes with a location request, observing only
// the grant/deny outcome, with a 5s timeout defaulting to unknown.
func (s *Session) CheckPermissions(ctx context.Context) PermissionStatus {
	status, err := s.provider.QueryPermission(ctx)
	if err == nil {
		s.setPermission(status)
		return status
	}

	if !errors.Is(err, ErrPermissionQueryUnsupported) {
		s.logger.WithField("err", err).Warn("Permission query failed")
		status = PermissionStatus{State: PermissionUnknown}
		s.setPermission(status)
		return status
	}

	return s.probePermission(ctx, permissionProbeTimeout)
}

// RequestPermissions short-circuits when permission is already granted;
// otherwise a location request decides and emits the new status.
func (s *Session) RequestPermissions(ctx context.Context) PermissionStatus {
	s.mu.Lock()
	cached := s.permission
	s.mu.Unlock()
	if cached.Granted {
		return cached
	}

	return s.probePermission(ctx, deviceRequestTimeout)
}

func (s *Session) probePermission(ctx context.Context, timeout time.Duration) PermissionStatus {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var status PermissionStatus
	_, err := s.provider.CurrentPosition(probeCtx, s.Settings().watchOptions())
	switch {
	case err == nil:
		status = PermissionStatus{Granted: true, State: PermissionGranted}
	case errors.Is(err, ErrPermissionDenied):
		status = PermissionStatus{State: PermissionDenied}
	default:
		status = PermissionStatus{State: PermissionUnknown}
	}

	s.setPermission(status)
	return status
}

func (s *Session) setPermission(next PermissionStatus) {
	s.mu.Lock()
	changed := s.permission != next
	s.permission = next
	s.mu.Unlock()

	if changed {
		s.listeners.emit(Event{Type: EventPermissionChange, Permission: &next})
	}
}

// Start negotiates permissions and opens the continuous device watch for the
// given technician. Starting an active session logs a warning and returns
// ErrAlreadyTracking without touching the running watch.
func (s *Session) Start(ctx context.Context, technicianID, workOrderID string) error {
	s.mu.Lock()
	if s.state == StateTracking {
		s.mu.Unlock()
		s.logger.WithField("technician", technicianID).Warn("Start ignored: tracking already active")
		return ErrAlreadyTracking
	}
	if !s.settings.Enabled {
		s.mu.Unlock()
		return ErrTrackingDisabled
	}
	s.state = StateRequestingPermission
	s.mu.Unlock()

	status := s.CheckPermissions(ctx)
	if !status.Granted {
		status = s.RequestPermissions(ctx)
	}
	if !status.Granted {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return ErrPermissionDenied
	}

	s.mu.Lock()
	opts := s.settings.watchOptions()
	s.technicianID = technicianID
	s.workOrderID = workOrderID
	s.mu.Unlock()

	watch, err := s.provider.WatchPosition(opts, s.processLocation, s.handleWatchError)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.watch = watch
	s.state = StateTracking
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"technician": technicianID,
		"work_order": workOrderID,
	}).Info("Tracking started")
	return nil
}

// Stop closes the device watch. Safe to call when not tracking.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	watch := s.watch
	s.watch = nil
	wasTracking := s.state == StateTracking
	s.state = StateIdle
	s.mu.Unlock()

	if watch != nil {
		watch.Clear()
	}
	if wasTracking {
		s.logger.Info("Tracking stopped")
	}
}

// CurrentLocation resolves a single position fix. Permission is verified
// first; provider errors are propagated to the caller.
func (s *Session) CurrentLocation(ctx context.Context) (geo.TimedLocation, error) {
	status := s.CheckPermissions(ctx)
	if status.State == PermissionDenied {
		return geo.TimedLocation{}, ErrPermissionDenied
	}

	reqCtx, cancel := context.WithTimeout(ctx, deviceRequestTimeout)
	defer cancel()

	loc, err := s.provider.CurrentPosition(reqCtx, s.Settings().watchOptions())
	if err != nil {
		return geo.TimedLocation{}, err
	}

	s.mu.Lock()
	s.lastKnown = &loc
	s.mu.Unlock()
	return loc, nil
}

// UpdateSettings merges a partial update into the current settings. When the
// session is tracking, the device watch is stopped and restarted with the
// most recent technician/work-order context so the new options take effect.
func (s *Session) UpdateSettings(patch SettingsPatch) {
	s.mu.Lock()
	s.settings = s.settings.merge(patch)
	wasTracking := s.state == StateTracking
	technicianID, workOrderID := s.technicianID, s.workOrderID
	s.mu.Unlock()

	if !wasTracking {
		return
	}

	s.Stop()
	if err := s.Start(context.Background(), technicianID, workOrderID); err != nil {
		s.logger.WithField("err", err).Error("Restart after settings update failed")
		s.listeners.emit(Event{Type: EventError, Err: err})
	}
}

// processLocation is the per-sample pipeline shared by the watch callback
// and test harnesses: build the sample, evaluate geofences against the
// previous accepted sample, append to the bounded history, update the last
// known location, then emit.
func (s *Session) processLocation(loc geo.TimedLocation) {
	s.mu.Lock()
	prev := s.lastKnown

	sample := Sample{
		ID:           uuid.New().String(),
		TechnicianID: s.technicianID,
		WorkOrderID:  s.workOrderID,
		Location:     loc,
		Metadata:     s.metadata,
	}

	fenceEvents := s.fences.Evaluate(prev, loc, s.technicianID, s.workOrderID)

	s.history = append(s.history, sample)
	if len(s.history) > historyCap {
		s.history = append([]Sample(nil), s.history[len(s.history)-historyTrim:]...)
	}

	s.lastKnown = &loc
	s.mu.Unlock()

	s.listeners.emit(Event{Type: EventLocationUpdate, Sample: &sample})
	for i := range fenceEvents {
		ev := fenceEvents[i]
		t := EventGeoFenceEnter
		if ev.Type == geofence.EventExit {
			t = EventGeoFenceExit
		}
		s.listeners.emit(Event{Type: t, FenceEvent: &ev})
	}
}

// handleWatchError classifies device errors: permission denial halts
// tracking immediately with a terminal error; anything else emits a
// recoverable error and schedules a clean stop after the grace window.
// Restarting is the caller's responsibility.
func (s *Session) handleWatchError(err error) {
	if errors.Is(err, ErrPermissionDenied) {
		s.setPermission(PermissionStatus{State: PermissionDenied})
		s.Stop()
		s.listeners.emit(Event{Type: EventError, Err: err, Terminal: true})
		return
	}

	s.logger.WithField("err", err).Warn("Recoverable device error, stopping after grace window")
	s.listeners.emit(Event{Type: EventError, Err: err})

	s.mu.Lock()
	if s.graceTimer == nil && s.state == StateTracking {
		s.graceTimer = time.AfterFunc(errorGraceDelay, s.Stop)
	}
	s.mu.Unlock()
}
