package tracking

import (
	"sync"

	"github.com/fieldops/geotrack/libs/geofence"
)

// EventType names the event classes a session emits.
type EventType string

const (
	EventLocationUpdate   EventType = "locationUpdate"
	EventGeoFenceEnter    EventType = "geoFenceEnter"
	EventGeoFenceExit     EventType = "geoFenceExit"
	EventPermissionChange EventType = "permissionChange"
	EventError            EventType = "error"
)

// Event is the payload delivered to listeners. Exactly one of the pointer
// fields is set, matching Type.
type Event struct {
	Type       EventType
	Sample     *Sample
	FenceEvent *geofence.Event
	Permission *PermissionStatus
	Err        error

	// Terminal is set on error events that halt tracking (permission denial).
	Terminal bool
}

// Handler consumes session events. Handlers run synchronously at emission
// time; slow handlers delay sample processing.
type Handler func(Event)

// listenerRegistry is a plain map-of-callbacks pub/sub with synchronous
// fan-out. No queueing, no replay.
type listenerRegistry struct {
	mu       sync.Mutex
	nextID   int
	handlers map[EventType]map[int]Handler
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{handlers: make(map[EventType]map[int]Handler)}
}

// subscribe registers a handler and returns its unsubscribe function.
func (r *listenerRegistry) subscribe(t EventType, h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handlers[t] == nil {
		r.handlers[t] = make(map[int]Handler)
	}
	id := r.nextID
	r.nextID++
	r.handlers[t][id] = h

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers[t], id)
	}
}

// emit fans the event out to the handlers registered for its type.
func (r *listenerRegistry) emit(ev Event) {
	r.mu.Lock()
	handlers := make([]Handler, 0, len(r.handlers[ev.Type]))
	for _, h := range r.handlers[ev.Type] {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
