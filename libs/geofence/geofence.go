package geofence

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/geotrack/libs/geo"
)

// FenceType classifies the purpose of a fenced area.
type FenceType string

const (
	FenceWorkSite   FenceType = "work_site"
	FenceOffice     FenceType = "office"
	FenceWarehouse  FenceType = "warehouse"
	FenceRestricted FenceType = "restricted"
)

// EventType is the kind of boundary transition a sample produced.
type EventType string

const (
	EventEnter EventType = "enter"
	EventExit  EventType = "exit"
)

// Fence is a named circular region. Names are not required to be unique;
// fences are keyed by ID.
type Fence struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Center       geo.Coordinate `json:"center"`
	RadiusMeters float64        `json:"radius_meters"`
	Type         FenceType      `json:"type"`
	WorkOrderID  string         `json:"work_order_id,omitempty"`
}

// Event records a fence boundary crossing. The engine emits events and
// never stores them; persistence is the listener's responsibility.
type Event struct {
	ID           string            `json:"id"`
	FenceID      string            `json:"geofence_id"`
	TechnicianID string            `json:"technician_id"`
	WorkOrderID  string            `json:"work_order_id,omitempty"`
	Type         EventType         `json:"event_type"`
	Location     geo.TimedLocation `json:"location"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Engine holds a mutable fence set keyed by ID and detects boundary
// transitions between consecutive position samples.
type Engine struct {
	mu     sync.RWMutex
	fences map[string]Fence
}

func NewEngine() *Engine {
	return &Engine{fences: make(map[string]Fence)}
}

// Add registers a fence, replacing any fence with the same ID.
func (e *Engine) Add(f Fence) error {
	if f.ID == "" {
		return fmt.Errorf("fence has no id")
	}
	if f.RadiusMeters <= 0 {
		return fmt.Errorf("fence %s: radius must be positive, got %v", f.ID, f.RadiusMeters)
	}
	if !geo.Validate(f.Center.Latitude, f.Center.Longitude) {
		return fmt.Errorf("fence %s: invalid center coordinates", f.ID)
	}

	e.mu.Lock()
	e.fences[f.ID] = f
	e.mu.Unlock()
	return nil
}

// Remove deletes a fence by ID. Removing an unknown ID is a no-op.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	delete(e.fences, id)
	e.mu.Unlock()
}

// List returns a defensive copy of the fence set.
func (e *Engine) List() []Fence {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Fence, 0, len(e.fences))
	for _, f := range e.fences {
		out = append(out, f)
	}
	return out
}

// Replace swaps the whole fence set in one step.
func (e *Engine) Replace(fences []Fence) error {
	next := make(map[string]Fence, len(fences))
	for _, f := range fences {
		if f.RadiusMeters <= 0 || !geo.Validate(f.Center.Latitude, f.Center.Longitude) {
			return fmt.Errorf("fence %s: invalid definition", f.ID)
		}
		next[f.ID] = f
	}

	e.mu.Lock()
	e.fences = next
	e.mu.Unlock()
	return nil
}

// Evaluate compares the current sample against the previous accepted sample
// for every registered fence. With no previous location no transition can be
// detected, so the first sample never emits events. A single sample may
// produce zero or more events.
func (e *Engine) Evaluate(prev *geo.TimedLocation, cur geo.TimedLocation, technicianID, workOrderID string) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var events []Event
	for _, f := range e.fences {
		wasInside := prev != nil && geo.Distance(prev.Coordinate, f.Center) <= f.RadiusMeters
		isInside := geo.Distance(cur.Coordinate, f.Center) <= f.RadiusMeters

		var typ EventType
		switch {
		case !wasInside && isInside:
			typ = EventEnter
		case wasInside && !isInside:
			typ = EventExit
		default:
			continue
		}

		events = append(events, Event{
			ID:           uuid.New().String(),
			FenceID:      f.ID,
			TechnicianID: technicianID,
			WorkOrderID:  workOrderID,
			Type:         typ,
			Location:     cur,
			Timestamp:    cur.Timestamp,
		})
	}

	return events
}
