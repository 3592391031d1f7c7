package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/fieldops/geotrack/libs/geo"
	"github.com/fieldops/geotrack/libs/geofence"
	"github.com/fieldops/geotrack/libs/tracking"
)

// FenceConfig declares a geofence in the config file.
type FenceConfig struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Latitude    float64 `yaml:"latitude"`
	Longitude   float64 `yaml:"longitude"`
	Radius      float64 `yaml:"radius"`
	Type        string  `yaml:"type"`
	WorkOrderID string  `yaml:"work_order_id"`
}

// TrackingConfig overrides the session defaults from the config file.
type TrackingConfig struct {
	Enabled            *bool   `yaml:"enabled"`
	Accuracy           string  `yaml:"accuracy"`
	UpdateIntervalSec  int     `yaml:"update_interval_sec"`
	BackgroundTracking *bool   `yaml:"background_tracking"`
	DefaultFenceRadius float64 `yaml:"default_fence_radius"`
	MaxLocationAgeSec  int     `yaml:"max_location_age_sec"`
}

// Settings is the tracker configuration file.
type Settings struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	ApiPort int    `yaml:"api_port"`
	ConnTTL int    `yaml:"conn_ttl"`

	LogLevel      string `yaml:"log_level"`
	LogFilePath   string `yaml:"log_file_path"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	Store          map[string]map[string]string `yaml:"storage"`
	MigrationsPath string                       `yaml:"migrations_path"`

	FenceReloadCron string `yaml:"fence_reload_cron"`

	Tracking TrackingConfig `yaml:"tracking"`
	Fences   []FenceConfig  `yaml:"fences"`
}

// GetEmptyConnTTL is the read deadline applied to idle device connections.
func (s *Settings) GetEmptyConnTTL() time.Duration {
	return time.Duration(s.ConnTTL) * time.Second
}

func (s *Settings) GetListenAddress() string {
	return s.Host + ":" + s.Port
}

func (s *Settings) GetLogLevel() log.Level {
	switch s.LogLevel {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// GetTrackingSettings merges the config overrides over the library defaults.
func (s *Settings) GetTrackingSettings() tracking.Settings {
	out := tracking.DefaultSettings()

	if s.Tracking.Enabled != nil {
		out.Enabled = *s.Tracking.Enabled
	}
	switch s.Tracking.Accuracy {
	case "low":
		out.Accuracy = tracking.AccuracyLow
	case "medium":
		out.Accuracy = tracking.AccuracyMedium
	case "high", "":
		out.Accuracy = tracking.AccuracyHigh
	default:
		log.Warnf("Unknown accuracy %q, falling back to high", s.Tracking.Accuracy)
	}
	if s.Tracking.UpdateIntervalSec > 0 {
		out.UpdateInterval = time.Duration(s.Tracking.UpdateIntervalSec) * time.Second
	}
	if s.Tracking.BackgroundTracking != nil {
		out.BackgroundTracking = *s.Tracking.BackgroundTracking
	}
	if s.Tracking.DefaultFenceRadius > 0 {
		out.DefaultFenceRadius = s.Tracking.DefaultFenceRadius
	}
	if s.Tracking.MaxLocationAgeSec > 0 {
		out.MaxLocationAge = time.Duration(s.Tracking.MaxLocationAgeSec) * time.Second
	}

	return out
}

// GetFences converts the declared fences, rejecting invalid definitions.
func (s *Settings) GetFences() ([]geofence.Fence, error) {
	fences := make([]geofence.Fence, 0, len(s.Fences))
	for i, fc := range s.Fences {
		if fc.ID == "" {
			return nil, fmt.Errorf("fence %d: id is required", i)
		}
		if fc.Radius <= 0 {
			return nil, fmt.Errorf("fence %s: radius must be positive", fc.ID)
		}
		if !geo.Validate(fc.Latitude, fc.Longitude) {
			return nil, fmt.Errorf("fence %s: invalid coordinates", fc.ID)
		}

		typ := geofence.FenceType(fc.Type)
		switch typ {
		case geofence.FenceWorkSite, geofence.FenceOffice, geofence.FenceWarehouse, geofence.FenceRestricted:
		case "":
			typ = geofence.FenceWorkSite
		default:
			return nil, fmt.Errorf("fence %s: unknown type %q", fc.ID, fc.Type)
		}

		fences = append(fences, geofence.Fence{
			ID:           fc.ID,
			Name:         fc.Name,
			Center:       geo.Coordinate{Latitude: fc.Latitude, Longitude: fc.Longitude},
			RadiusMeters: fc.Radius,
			Type:         typ,
			WorkOrderID:  fc.WorkOrderID,
		})
	}
	return fences, nil
}

// New reads and validates the config file.
func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	if err = yaml.Unmarshal(data, &c); err != nil {
		return c, err
	}

	if c.Port == "" {
		c.Port = "5020"
	}
	if c.ApiPort == 0 {
		c.ApiPort = 8080
	}
	if c.FenceReloadCron == "" {
		c.FenceReloadCron = "@hourly"
	}

	return c, nil
}
