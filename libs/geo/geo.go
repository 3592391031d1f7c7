package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for all great-circle math.
const EarthRadiusMeters = 6371000.0

// ErrEmptyPointSet is returned by aggregate functions called with no points.
var ErrEmptyPointSet = errors.New("point set is empty")

// ParseError reports a coordinate string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse coordinate %q: %s", e.Input, e.Reason)
}

// Validate reports whether a latitude/longitude pair is finite and in range.
func Validate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Parse converts a "lat, lon" string to a Coordinate.
func Parse(text string) (Coordinate, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return Coordinate{}, &ParseError{Input: text, Reason: "expected two comma-separated values"}
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, &ParseError{Input: text, Reason: "latitude is not a number"}
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, &ParseError{Input: text, Reason: "longitude is not a number"}
	}

	if !Validate(lat, lon) {
		return Coordinate{}, &ParseError{Input: text, Reason: "latitude must be [-90, 90], longitude must be [-180, 180]"}
	}

	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

// Format renders a Coordinate as a parseable "lat, lon" string.
func Format(c Coordinate) string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// Distance calculates the great-circle distance between two points in meters
// using the Haversine formula.
func Distance(a, b Coordinate) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0
	}

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Bearing calculates the initial great-circle bearing from one point to
// another in degrees [0, 360). Equal points yield 0 by convention.
func Bearing(from, to Coordinate) float64 {
	if from.Latitude == to.Latitude && from.Longitude == to.Longitude {
		return 0
	}

	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(deg+360, 360)
}

// Midpoint calculates the great-circle midpoint between two points.
func Midpoint(a, b Coordinate) Coordinate {
	p1 := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Latitude, a.Longitude))
	p2 := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Latitude, b.Longitude))

	mid := s2.LatLngFromPoint(s2.Interpolate(0.5, p1, p2))
	return Coordinate{Latitude: mid.Lat.Degrees(), Longitude: mid.Lng.Degrees()}
}

// Centroid calculates the spherical centroid of a point set by averaging
// unit vectors and projecting the result back onto the sphere.
func Centroid(points []Coordinate) (Coordinate, error) {
	if len(points) == 0 {
		return Coordinate{}, ErrEmptyPointSet
	}

	var sum r3.Vector
	for _, p := range points {
		v := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude))
		sum = sum.Add(v.Vector)
	}

	center := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return Coordinate{Latitude: center.Lat.Degrees(), Longitude: center.Lng.Degrees()}, nil
}

// Bounds calculates the min/max latitude and longitude box of a point set.
func Bounds(points []Coordinate) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, ErrEmptyPointSet
	}

	box := BoundingBox{
		NorthEast: points[0],
		SouthWest: points[0],
	}
	for _, p := range points[1:] {
		box.NorthEast.Latitude = math.Max(box.NorthEast.Latitude, p.Latitude)
		box.NorthEast.Longitude = math.Max(box.NorthEast.Longitude, p.Longitude)
		box.SouthWest.Latitude = math.Min(box.SouthWest.Latitude, p.Latitude)
		box.SouthWest.Longitude = math.Min(box.SouthWest.Longitude, p.Longitude)
	}

	return box, nil
}

// Offset calculates the point reached by travelling from origin on the given
// bearing (degrees) for the given distance (meters).
func Offset(origin Coordinate, bearing, distanceMeters float64) Coordinate {
	lat1 := origin.Latitude * math.Pi / 180
	lon1 := origin.Longitude * math.Pi / 180
	brg := bearing * math.Pi / 180
	ad := distanceMeters / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ad) + math.Cos(lat1)*math.Sin(ad)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(ad)*math.Cos(lat1),
		math.Cos(ad)-math.Sin(lat1)*math.Sin(lat2))

	return Coordinate{Latitude: lat2 * 180 / math.Pi, Longitude: lon2 * 180 / math.Pi}
}

var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalDirection maps a bearing in degrees to one of 16 compass labels.
func CardinalDirection(bearing float64) string {
	idx := int(math.Round(math.Mod(bearing+360, 360)/22.5)) % 16
	return compassLabels[idx]
}
