package tracking

import "time"

// Accuracy selects the device accuracy profile for position requests.
type Accuracy string

const (
	AccuracyLow    Accuracy = "low"
	AccuracyMedium Accuracy = "medium"
	AccuracyHigh   Accuracy = "high"
)

// Settings configure a tracking session. They are owned by the session;
// changing them while tracking restarts the underlying device watch.
type Settings struct {
	Enabled            bool          `yaml:"enabled" json:"enabled"`
	Accuracy           Accuracy      `yaml:"accuracy" json:"accuracy"`
	UpdateInterval     time.Duration `yaml:"update_interval" json:"update_interval"`
	BackgroundTracking bool          `yaml:"background_tracking" json:"background_tracking"`
	DefaultFenceRadius float64       `yaml:"default_fence_radius" json:"default_fence_radius"`
	MaxLocationAge     time.Duration `yaml:"max_location_age" json:"max_location_age"`
}

// DefaultSettings returns the settings used when the config does not
// override them.
func DefaultSettings() Settings {
	return Settings{
		Enabled:            true,
		Accuracy:           AccuracyHigh,
		UpdateInterval:     10 * time.Second,
		BackgroundTracking: false,
		DefaultFenceRadius: 100,
		MaxLocationAge:     30 * time.Second,
	}
}

// SettingsPatch is a partial settings update; nil fields keep their
// current values.
type SettingsPatch struct {
	Enabled            *bool
	Accuracy           *Accuracy
	UpdateInterval     *time.Duration
	BackgroundTracking *bool
	DefaultFenceRadius *float64
	MaxLocationAge     *time.Duration
}

func (s Settings) merge(p SettingsPatch) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Accuracy != nil {
		s.Accuracy = *p.Accuracy
	}
	if p.UpdateInterval != nil {
		s.UpdateInterval = *p.UpdateInterval
	}
	if p.BackgroundTracking != nil {
		s.BackgroundTracking = *p.BackgroundTracking
	}
	if p.DefaultFenceRadius != nil {
		s.DefaultFenceRadius = *p.DefaultFenceRadius
	}
	if p.MaxLocationAge != nil {
		s.MaxLocationAge = *p.MaxLocationAge
	}
	return s
}

// watchOptions derives provider request options from the settings.
func (s Settings) watchOptions() WatchOptions {
	return WatchOptions{
		HighAccuracy: s.Accuracy == AccuracyHigh,
		Timeout:      deviceRequestTimeout,
		MaximumAge:   s.MaxLocationAge,
		Interval:     s.UpdateInterval,
	}
}
