package geofence

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml"

	"github.com/fieldops/geotrack/libs/geo"
)

// circleSegments is the number of vertices used to approximate a fence circle.
const circleSegments = 36

// WriteKML renders the fence set as a KML document for map consumers.
// Circles are approximated by closed polygons.
func (e *Engine) WriteKML(w io.Writer) error {
	fences := e.List()

	doc := kml.Document(kml.Name("geofences"))
	for _, f := range fences {
		doc.Add(fencePlacemark(f))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}

func fencePlacemark(f Fence) kml.Element {
	ring := make([]kml.Coordinate, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		p := geo.Offset(f.Center, float64(i)*360/circleSegments, f.RadiusMeters)
		ring = append(ring, kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude})
	}

	return kml.Placemark(
		kml.Name(f.Name),
		kml.Description(fmt.Sprintf("type=%s radius=%.0fm", f.Type, f.RadiusMeters)),
		kml.Polygon(
			kml.OuterBoundaryIs(
				kml.LinearRing(
					kml.Coordinates(ring...),
				),
			),
		),
	)
}
