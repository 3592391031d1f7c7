package route

import (
	"fmt"
	"math"
	"time"

	"github.com/fieldops/geotrack/libs/geo"
)

// TravelMode selects the speed model used for time and cost estimates.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
	ModeTransit TravelMode = "transit"
)

// Average speeds in km/h per travel mode.
var modeSpeedKmh = map[TravelMode]float64{
	ModeDriving: 50,
	ModeWalking: 5,
	ModeCycling: 15,
	ModeTransit: 25,
}

// VehicleType selects the consumption profile for fuel estimates.
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleVan        VehicleType = "van"
	VehicleTruck      VehicleType = "truck"
	VehicleMotorcycle VehicleType = "motorcycle"
)

// Fuel consumption in liters per 100 km per vehicle type.
var vehicleFuelPer100Km = map[VehicleType]float64{
	VehicleCar:        8.5,
	VehicleVan:        12.0,
	VehicleTruck:      28.0,
	VehicleMotorcycle: 4.5,
}

// transitFarePerKm is the flat per-kilometer fare used for transit costs.
const transitFarePerKm = 0.15

// duplicateStopThresholdMeters flags waypoints close enough to be the same stop.
const duplicateStopThresholdMeters = 10.0

// Waypoint is one stop on a planned route. Ephemeral planning data.
type Waypoint struct {
	ID                string         `json:"id"`
	Location          geo.Coordinate `json:"location"`
	Name              string         `json:"name,omitempty"`
	EstimatedDuration time.Duration  `json:"estimated_duration,omitempty"`
}

// Distance returns the total route length in kilometers following the
// waypoints in order. Routes with fewer than two points have zero length.
func Distance(points []Waypoint) float64 {
	if len(points) < 2 {
		return 0
	}

	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += geo.Distance(points[i].Location, points[i+1].Location)
	}
	return total / 1000
}

// EstimateTravelTime converts a distance to minutes for a travel mode,
// rounded to the nearest minute. Unknown modes fall back to driving.
func EstimateTravelTime(distanceKm float64, mode TravelMode) int {
	speed, ok := modeSpeedKmh[mode]
	if !ok {
		speed = modeSpeedKmh[ModeDriving]
	}
	return int(math.Round(distanceKm / speed * 60))
}

// OptimizeResult is the outcome of a nearest-neighbor reordering. Savings
// can be zero or negative; adopting the optimized order is the caller's call.
type OptimizeResult struct {
	Points           []Waypoint `json:"optimized_points"`
	DistanceSavedKm  float64    `json:"distance_saved_km"`
	TimeSavedMinutes int        `json:"time_saved_minutes"`
}

// Optimize reorders waypoints with a nearest-neighbor heuristic: the first
// point is fixed, then the closest unvisited point is appended repeatedly.
// Routes with two points or fewer are returned unchanged.
func Optimize(points []Waypoint) OptimizeResult {
	if len(points) <= 2 {
		return OptimizeResult{Points: append([]Waypoint(nil), points...)}
	}

	optimized := nearestNeighborOrder(points[0], points[1:])

	originalKm := Distance(points)
	optimizedKm := Distance(optimized)
	savedKm := originalKm - optimizedKm

	return OptimizeResult{
		Points:           optimized,
		DistanceSavedKm:  savedKm,
		TimeSavedMinutes: EstimateTravelTime(originalKm, ModeDriving) - EstimateTravelTime(optimizedKm, ModeDriving),
	}
}

// FindShortestPath orders waypoints greedily from start, visiting the nearest
// unvisited waypoint each step. When end is non-nil it is appended last.
func FindShortestPath(start Waypoint, waypoints []Waypoint, end *Waypoint) []Waypoint {
	path := nearestNeighborOrder(start, waypoints)
	if end != nil {
		path = append(path, *end)
	}
	return path
}

func nearestNeighborOrder(start Waypoint, rest []Waypoint) []Waypoint {
	remaining := append([]Waypoint(nil), rest...)
	ordered := make([]Waypoint, 0, len(remaining)+1)
	ordered = append(ordered, start)

	current := start
	for len(remaining) > 0 {
		nearest := 0
		nearestDist := geo.Distance(current.Location, remaining[0].Location)
		for i := 1; i < len(remaining); i++ {
			if d := geo.Distance(current.Location, remaining[i].Location); d < nearestDist {
				nearest = i
				nearestDist = d
			}
		}

		current = remaining[nearest]
		ordered = append(ordered, current)
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
	}

	return ordered
}

// Segment is one leg of a route in a stats breakdown.
type Segment struct {
	From        Waypoint `json:"from"`
	To          Waypoint `json:"to"`
	DistanceKm  float64  `json:"distance_km"`
	TimeMinutes int      `json:"time_minutes"`
}

// Stats summarizes a route per leg and in total.
type Stats struct {
	TotalDistanceKm  float64   `json:"total_distance_km"`
	TotalTimeMinutes int       `json:"total_time_minutes"`
	Segments         []Segment `json:"segments"`
}

// RouteStats calculates per-segment and total distance/time for a route.
func RouteStats(points []Waypoint, mode TravelMode) Stats {
	stats := Stats{}
	for i := 0; i < len(points)-1; i++ {
		km := geo.Distance(points[i].Location, points[i+1].Location) / 1000
		stats.Segments = append(stats.Segments, Segment{
			From:        points[i],
			To:          points[i+1],
			DistanceKm:  km,
			TimeMinutes: EstimateTravelTime(km, mode),
		})
		stats.TotalDistanceKm += km
	}
	stats.TotalTimeMinutes = EstimateTravelTime(stats.TotalDistanceKm, mode)
	return stats
}

// EstimateFuelConsumption returns liters of fuel for a distance and vehicle
// type using a fixed per-100km table. Unknown vehicles fall back to car.
func EstimateFuelConsumption(distanceKm float64, vehicle VehicleType) float64 {
	per100, ok := vehicleFuelPer100Km[vehicle]
	if !ok {
		per100 = vehicleFuelPer100Km[VehicleCar]
	}
	return distanceKm / 100 * per100
}

// CostOptions carries the price inputs for route cost estimation.
type CostOptions struct {
	Vehicle           VehicleType `json:"vehicle"`
	FuelPricePerLiter float64     `json:"fuel_price_per_liter"`
	TollCost          float64     `json:"toll_cost"`
	ParkingCost       float64     `json:"parking_cost"`
}

// EstimateRouteCost calculates the monetary cost of a route: fuel plus tolls
// and parking for driving, a flat per-km fare for transit, zero for walking
// and cycling.
func EstimateRouteCost(distanceKm float64, mode TravelMode, opts CostOptions) float64 {
	switch mode {
	case ModeDriving:
		fuel := EstimateFuelConsumption(distanceKm, opts.Vehicle)
		return fuel*opts.FuelPricePerLiter + opts.TollCost + opts.ParkingCost
	case ModeTransit:
		return distanceKm * transitFarePerKm
	default:
		return 0
	}
}

// Recommendation names the preferred route of a comparison.
type Recommendation struct {
	Route           string  `json:"route"` // "A" or "B"
	Reason          string  `json:"reason"`
	DistanceDiffKm  float64 `json:"distance_diff_km"`
	TimeDiffMinutes int     `json:"time_diff_minutes"`
}

// CompareRoutes recommends the route with a materially lower distance
// (>0.5 km) or time (>5 min); otherwise route A is kept by default.
func CompareRoutes(a, b []Waypoint, mode TravelMode) Recommendation {
	distA, distB := Distance(a), Distance(b)
	timeA, timeB := EstimateTravelTime(distA, mode), EstimateTravelTime(distB, mode)

	rec := Recommendation{
		DistanceDiffKm:  distA - distB,
		TimeDiffMinutes: timeA - timeB,
	}

	switch {
	case distB-distA > 0.5:
		rec.Route = "A"
		rec.Reason = fmt.Sprintf("route A is %.1f km shorter", distB-distA)
	case distA-distB > 0.5:
		rec.Route = "B"
		rec.Reason = fmt.Sprintf("route B is %.1f km shorter", distA-distB)
	case timeB-timeA > 5:
		rec.Route = "A"
		rec.Reason = fmt.Sprintf("route A is %d min faster", timeB-timeA)
	case timeA-timeB > 5:
		rec.Route = "B"
		rec.Reason = fmt.Sprintf("route B is %d min faster", timeA-timeB)
	default:
		rec.Route = "A"
		rec.Reason = "routes are comparable, keeping route A"
	}

	return rec
}

// ValidationResult lists the problems found in a planned route.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// ValidateRoute flags routes with fewer than two points, invalid
// coordinates, and waypoint pairs closer than 10 meters (duplicate stops).
func ValidateRoute(points []Waypoint) ValidationResult {
	result := ValidationResult{IsValid: true}

	if len(points) < 2 {
		result.IsValid = false
		result.Errors = append(result.Errors, "route requires at least two waypoints")
	}

	for i, p := range points {
		if !geo.Validate(p.Location.Latitude, p.Location.Longitude) {
			result.IsValid = false
			result.Errors = append(result.Errors, fmt.Sprintf("waypoint %d (%s) has invalid coordinates", i, p.ID))
		}
	}

	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if geo.Distance(points[i].Location, points[j].Location) < duplicateStopThresholdMeters {
				result.IsValid = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("waypoints %d and %d are closer than %.0fm, likely duplicate stops", i, j, duplicateStopThresholdMeters))
			}
		}
	}

	return result
}

// SplitRouteByDistance breaks a route into segments by greedy accumulation:
// a new segment starts once adding the next leg would exceed the cap.
// Trivial routes come back as a single segment.
func SplitRouteByDistance(points []Waypoint, maxSegmentKm float64) [][]Waypoint {
	if len(points) < 2 {
		return [][]Waypoint{append([]Waypoint(nil), points...)}
	}

	var segments [][]Waypoint
	current := []Waypoint{points[0]}
	currentKm := 0.0

	for _, next := range points[1:] {
		legKm := geo.Distance(current[len(current)-1].Location, next.Location) / 1000
		if currentKm+legKm > maxSegmentKm && len(current) > 1 {
			segments = append(segments, current)
			current = []Waypoint{next}
			currentKm = 0
			continue
		}
		current = append(current, next)
		currentKm += legKm
	}

	return append(segments, current)
}
