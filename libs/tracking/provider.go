package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/fieldops/geotrack/libs/geo"
)

var (
	// ErrPermissionDenied marks a terminal permission failure. Tracking stops
	// and is not restarted until permissions are re-requested.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrPermissionQueryUnsupported is returned by providers that cannot
	// answer permission queries without issuing a location request.
	ErrPermissionQueryUnsupported = errors.New("permission query not supported")

	// ErrDeviceUnavailable marks a transient provider failure (no fix,
	// request timeout). Recoverable: the session stops cleanly after a grace
	// window and the caller decides whether to restart.
	ErrDeviceUnavailable = errors.New("location device unavailable")

	// ErrTrackingDisabled is returned by Start when tracking is switched off
	// in the settings.
	ErrTrackingDisabled = errors.New("tracking is disabled in settings")

	// ErrAlreadyTracking is returned by Start when a watch is already open.
	// Non-fatal: the running watch is left untouched.
	ErrAlreadyTracking = errors.New("tracking already active")
)

// PermissionState mirrors the platform permission API states.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
	PermissionUnknown PermissionState = "unknown"
)

// PermissionStatus is the cached outcome of permission negotiation.
type PermissionStatus struct {
	Granted bool            `json:"granted"`
	State   PermissionState `json:"status"`
}

// WatchOptions configure one-shot and continuous position requests.
type WatchOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
	Interval     time.Duration
}

// WatchHandle cancels a continuous position watch. Clear is idempotent.
type WatchHandle interface {
	Clear()
}

// Provider is the device location capability the session runs against.
// Implementations wrap a platform location API, a device stream, or a replay
// source; errors are classified with the sentinel errors above.
type Provider interface {
	// QueryPermission asks the platform permission API for the current state.
	// Providers without one return ErrPermissionQueryUnsupported and the
	// session falls back to a probe request.
	QueryPermission(ctx context.Context) (PermissionStatus, error)

	// CurrentPosition resolves a single position fix.
	CurrentPosition(ctx context.Context, opts WatchOptions) (geo.TimedLocation, error)

	// WatchPosition opens a continuous position stream. Callbacks fire
	// repeatedly until the returned handle is cleared.
	WatchPosition(opts WatchOptions, onUpdate func(geo.TimedLocation), onError func(error)) (WatchHandle, error)
}
