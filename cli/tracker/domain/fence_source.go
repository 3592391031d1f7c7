package domain

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/fieldops/geotrack/libs/geo"
	"github.com/fieldops/geotrack/libs/geofence"
)

// FenceSource supplies the current fence set. The hub reloads from the
// source on a schedule so dispatch can add work-site fences without a
// restart.
type FenceSource interface {
	LoadFences() ([]geofence.Fence, error)
}

// StaticSource serves a fixed fence list, typically read from the config.
type StaticSource struct {
	fences []geofence.Fence
}

func NewStaticSource(fences []geofence.Fence) *StaticSource {
	return &StaticSource{fences: fences}
}

func (s *StaticSource) LoadFences() ([]geofence.Fence, error) {
	out := make([]geofence.Fence, len(s.fences))
	copy(out, s.fences)
	return out, nil
}

// PostgresSource loads fences from the geofence table maintained by the
// dispatch backend.
type PostgresSource struct {
	db    *sql.DB
	table string
}

func NewPostgresSource(connStr, table string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL connection error: %v", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("PostgreSQL is unreachable: %v", err)
	}

	if table == "" {
		table = "geofence"
	}
	return &PostgresSource{db: db, table: table}, nil
}

func (s *PostgresSource) LoadFences() ([]geofence.Fence, error) {
	query := fmt.Sprintf(
		"SELECT id, name, latitude, longitude, radius_meters, fence_type, COALESCE(work_order_id, '') FROM %s", s.table)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to load fences: %v", err)
	}
	defer rows.Close()

	var fences []geofence.Fence
	for rows.Next() {
		var (
			f         geofence.Fence
			lat, lon  float64
			fenceType string
		)
		if err := rows.Scan(&f.ID, &f.Name, &lat, &lon, &f.RadiusMeters, &fenceType, &f.WorkOrderID); err != nil {
			return nil, fmt.Errorf("failed to scan fence row: %v", err)
		}
		f.Center = geo.Coordinate{Latitude: lat, Longitude: lon}
		f.Type = geofence.FenceType(fenceType)
		fences = append(fences, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fences, nil
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}
