package route

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/fieldops/geotrack/libs/geo"
)

// EncodePolyline encodes the waypoint path as a Google encoded polyline
// for transport to mapping consumers.
func EncodePolyline(points []Waypoint) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Location.Latitude, p.Location.Longitude}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline decodes an encoded polyline into bare waypoints. Decoded
// coordinates are validated, never clamped.
func DecodePolyline(encoded string) ([]Waypoint, error) {
	if encoded == "" {
		return nil, fmt.Errorf("encoded polyline is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("cannot decode polyline: %v", err)
	}

	points := make([]Waypoint, len(coords))
	for i, c := range coords {
		if !geo.Validate(c[0], c[1]) {
			return nil, fmt.Errorf("decoded polyline contains invalid coordinates at index %d", i)
		}
		points[i] = Waypoint{
			ID:       fmt.Sprintf("wp-%d", i),
			Location: geo.Coordinate{Latitude: c[0], Longitude: c[1]},
		}
	}

	return points, nil
}
