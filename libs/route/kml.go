package route

import (
	"io"

	"github.com/twpayne/go-kml"
)

// WriteKML renders a planned route as a KML document: one placemark per
// waypoint plus a line string following the route order.
func WriteKML(w io.Writer, name string, points []Waypoint) error {
	doc := kml.Document(kml.Name(name))

	line := make([]kml.Coordinate, 0, len(points))
	for _, p := range points {
		c := kml.Coordinate{Lon: p.Location.Longitude, Lat: p.Location.Latitude, Alt: p.Location.Altitude}
		line = append(line, c)
		doc.Add(kml.Placemark(
			kml.Name(p.Name),
			kml.Point(kml.Coordinates(c)),
		))
	}

	doc.Add(kml.Placemark(
		kml.Name(name),
		kml.LineString(
			kml.Tessellate(true),
			kml.Coordinates(line...),
		),
	))

	return kml.KML(doc).WriteIndent(w, "", "  ")
}
