package domain

import (
	"context"
	"sync"
	"time"

	"github.com/fieldops/geotrack/libs/geo"
	"github.com/fieldops/geotrack/libs/tracking"
)

// streamProvider adapts device-pushed reports to the pull-style provider
// interface the tracking session expects. A device that streams positions
// has already granted location access on its side, so permission queries
// always succeed.
type streamProvider struct {
	mu      sync.Mutex
	last    *geo.TimedLocation
	lastAt  time.Time
	waiters []chan geo.TimedLocation
	watch   *streamWatch
}

type streamWatch struct {
	provider *streamProvider
	onUpdate func(geo.TimedLocation)
	onError  func(error)
	cleared  bool
}

func newStreamProvider() *streamProvider {
	return &streamProvider{}
}

func (p *streamProvider) QueryPermission(ctx context.Context) (tracking.PermissionStatus, error) {
	return tracking.PermissionStatus{Granted: true, State: tracking.PermissionGranted}, nil
}

func (p *streamProvider) CurrentPosition(ctx context.Context, opts tracking.WatchOptions) (geo.TimedLocation, error) {
	p.mu.Lock()
	if p.last != nil && (opts.MaximumAge <= 0 || time.Since(p.lastAt) <= opts.MaximumAge) {
		loc := *p.last
		p.mu.Unlock()
		return loc, nil
	}

	ch := make(chan geo.TimedLocation, 1)
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case loc := <-ch:
		return loc, nil
	case <-timer.C:
		return geo.TimedLocation{}, tracking.ErrDeviceUnavailable
	case <-ctx.Done():
		return geo.TimedLocation{}, ctx.Err()
	}
}

func (p *streamProvider) WatchPosition(opts tracking.WatchOptions, onUpdate func(geo.TimedLocation), onError func(error)) (tracking.WatchHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := &streamWatch{provider: p, onUpdate: onUpdate, onError: onError}
	p.watch = w
	return w, nil
}

func (w *streamWatch) Clear() {
	p := w.provider
	p.mu.Lock()
	defer p.mu.Unlock()

	w.cleared = true
	if p.watch == w {
		p.watch = nil
	}
}

// Push delivers a device report to the active watch and any one-shot
// position requests waiting for a fix.
func (p *streamProvider) Push(loc geo.TimedLocation) {
	p.mu.Lock()
	p.last = &loc
	p.lastAt = time.Now()

	waiters := p.waiters
	p.waiters = nil

	var onUpdate func(geo.TimedLocation)
	if p.watch != nil && !p.watch.cleared {
		onUpdate = p.watch.onUpdate
	}
	p.mu.Unlock()

	for _, ch := range waiters {
		ch <- loc
	}
	if onUpdate != nil {
		onUpdate(loc)
	}
}

// Fail propagates a device-side failure to the active watch.
func (p *streamProvider) Fail(err error) {
	p.mu.Lock()
	var onError func(error)
	if p.watch != nil && !p.watch.cleared {
		onError = p.watch.onError
	}
	p.mu.Unlock()

	if onError != nil {
		onError(err)
	}
}
