package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	// Angels Camp to Murphys, CA: known great-circle distance ~11.0 km
	angelsCamp := Coordinate{Latitude: 38.0675, Longitude: -120.5436}
	murphys := Coordinate{Latitude: 38.1391, Longitude: -120.4561}

	d := Distance(angelsCamp, murphys)
	assert.InDelta(t, 11046, d, 100, "Distance should be approximately 11.0km")
}

func TestDistance_Symmetry(t *testing.T) {
	pairs := [][2]Coordinate{
		{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 0.002}},
		{{Latitude: 55.7558, Longitude: 37.6173}, {Latitude: 59.9343, Longitude: 30.3351}},
		{{Latitude: -33.8688, Longitude: 151.2093}, {Latitude: 51.5074, Longitude: -0.1278}},
		{{Latitude: 89.9, Longitude: 10}, {Latitude: -89.9, Longitude: -170}},
	}

	for _, pair := range pairs {
		ab := Distance(pair[0], pair[1])
		ba := Distance(pair[1], pair[0])
		assert.InEpsilon(t, ab, ba, 1e-6, "distance must be symmetric")
	}
}

func TestDistance_IdenticalPoints(t *testing.T) {
	p := Coordinate{Latitude: 38.0675, Longitude: -120.5436}
	assert.Zero(t, Distance(p, p))
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name     string
		from     Coordinate
		to       Coordinate
		expected float64
	}{
		{
			name:     "Due north",
			from:     Coordinate{Latitude: 0, Longitude: 0},
			to:       Coordinate{Latitude: 1, Longitude: 0},
			expected: 0,
		},
		{
			name:     "Due east",
			from:     Coordinate{Latitude: 0, Longitude: 0},
			to:       Coordinate{Latitude: 0, Longitude: 1},
			expected: 90,
		},
		{
			name:     "Due south",
			from:     Coordinate{Latitude: 1, Longitude: 0},
			to:       Coordinate{Latitude: 0, Longitude: 0},
			expected: 180,
		},
		{
			name:     "Due west",
			from:     Coordinate{Latitude: 0, Longitude: 1},
			to:       Coordinate{Latitude: 0, Longitude: 0},
			expected: 270,
		},
		{
			name:     "Equal points convention",
			from:     Coordinate{Latitude: 10, Longitude: 10},
			to:       Coordinate{Latitude: 10, Longitude: 10},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Bearing(tt.from, tt.to), 0.01)
		})
	}
}

func TestBearing_Range(t *testing.T) {
	points := []Coordinate{
		{Latitude: 38.0675, Longitude: -120.5436},
		{Latitude: -12.3, Longitude: 45.6},
		{Latitude: 71.2, Longitude: -156.8},
		{Latitude: 0.0001, Longitude: 179.9},
	}

	for _, from := range points {
		for _, to := range points {
			if from == to {
				continue
			}
			b := Bearing(from, to)
			assert.GreaterOrEqual(t, b, 0.0)
			assert.Less(t, b, 360.0)
		}
	}
}

func TestMidpoint(t *testing.T) {
	a := Coordinate{Latitude: 0, Longitude: 0}
	b := Coordinate{Latitude: 0, Longitude: 10}

	mid := Midpoint(a, b)
	assert.InDelta(t, 0, mid.Latitude, 1e-9)
	assert.InDelta(t, 5, mid.Longitude, 1e-9)

	// Midpoint must be equidistant from both endpoints.
	assert.InDelta(t, Distance(a, mid), Distance(b, mid), 1)
}

func TestCentroid(t *testing.T) {
	points := []Coordinate{
		{Latitude: 1, Longitude: 0},
		{Latitude: -1, Longitude: 0},
		{Latitude: 0, Longitude: 1},
		{Latitude: 0, Longitude: -1},
	}

	c, err := Centroid(points)
	require.NoError(t, err)
	assert.InDelta(t, 0, c.Latitude, 1e-6)
	assert.InDelta(t, 0, c.Longitude, 1e-6)
}

func TestCentroid_Empty(t *testing.T) {
	_, err := Centroid(nil)
	assert.ErrorIs(t, err, ErrEmptyPointSet)
}

func TestBounds(t *testing.T) {
	points := []Coordinate{
		{Latitude: 38.0675, Longitude: -120.5436},
		{Latitude: 38.1391, Longitude: -120.4561},
		{Latitude: 38.2458, Longitude: -120.3486},
	}

	box, err := Bounds(points)
	require.NoError(t, err)
	assert.Equal(t, 38.2458, box.NorthEast.Latitude)
	assert.Equal(t, -120.3486, box.NorthEast.Longitude)
	assert.Equal(t, 38.0675, box.SouthWest.Latitude)
	assert.Equal(t, -120.5436, box.SouthWest.Longitude)
}

func TestBounds_Empty(t *testing.T) {
	_, err := Bounds([]Coordinate{})
	assert.ErrorIs(t, err, ErrEmptyPointSet)
}

func TestCardinalDirection(t *testing.T) {
	tests := []struct {
		bearing  float64
		expected string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.3, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{340, "NNW"},
		{359.9, "N"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CardinalDirection(tt.bearing), "bearing %v", tt.bearing)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lon   float64
		valid bool
	}{
		{"Valid mid-range", 38.0675, -120.5436, true},
		{"Boundary north pole", 90, 0, true},
		{"Boundary date line", 0, -180, true},
		{"Latitude too large", 90.0001, 0, false},
		{"Longitude too small", 0, -180.0001, false},
		{"NaN latitude", math.NaN(), 0, false},
		{"Infinite longitude", 0, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Validate(tt.lat, tt.lon))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expectErr bool
		expected  Coordinate
	}{
		{
			name:     "Plain pair",
			input:    "38.0675, -120.5436",
			expected: Coordinate{Latitude: 38.0675, Longitude: -120.5436},
		},
		{
			name:     "No spaces",
			input:    "-12.5,45.25",
			expected: Coordinate{Latitude: -12.5, Longitude: 45.25},
		},
		{
			name:      "Too many tokens",
			input:     "1, 2, 3",
			expectErr: true,
		},
		{
			name:      "Single token",
			input:     "38.0675",
			expectErr: true,
		},
		{
			name:      "Non-numeric latitude",
			input:     "abc, 10",
			expectErr: true,
		},
		{
			name:      "Out of range",
			input:     "91, 0",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.input)
			if tt.expectErr {
				var parseErr *ParseError
				assert.ErrorAs(t, err, &parseErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestParse_FormatRoundTrip(t *testing.T) {
	originals := []Coordinate{
		{Latitude: 38.0675, Longitude: -120.5436},
		{Latitude: -89.999999, Longitude: 179.999999},
		{Latitude: 0, Longitude: 0},
	}

	for _, c := range originals {
		parsed, err := Parse(Format(c))
		require.NoError(t, err)
		assert.InDelta(t, c.Latitude, parsed.Latitude, 1e-6)
		assert.InDelta(t, c.Longitude, parsed.Longitude, 1e-6)
	}
}
