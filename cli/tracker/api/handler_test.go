package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/geotrack/cli/tracker/domain"
	"github.com/fieldops/geotrack/cli/tracker/server"
	"github.com/fieldops/geotrack/cli/tracker/storage"
	"github.com/fieldops/geotrack/libs/geo"
	"github.com/fieldops/geotrack/libs/route"
	"github.com/fieldops/geotrack/libs/tracking"
)

type discardRecorder struct{}

func (discardRecorder) Save(storage.Record) error { return nil }

func newTestController(t *testing.T) (*Controller, *domain.Hub) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	log.SetOutput(io.Discard)

	hub := domain.NewHub(discardRecorder{}, tracking.DefaultSettings(), nil, "")
	t.Cleanup(hub.Shutdown)

	return NewController(NewHandler(hub)), hub
}

func doRequest(c *Controller, method, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func TestGetLocation(t *testing.T) {
	controller, hub := newTestController(t)

	w := doRequest(controller, http.MethodGet, "/technicians/tech-1/location", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, hub.HandleReport(server.Report{
		TechnicianID: "tech-1",
		Latitude:     38.0678,
		Longitude:    -120.5386,
		Timestamp:    time.Now().UTC(),
	}))

	w = doRequest(controller, http.MethodGet, "/technicians/tech-1/location", "")
	require.Equal(t, http.StatusOK, w.Code)

	var loc struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loc))
	assert.InDelta(t, 38.0678, loc.Latitude, 1e-9)
}

func TestGetHistoryWithLimit(t *testing.T) {
	controller, hub := newTestController(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.HandleReport(server.Report{
			TechnicianID: "tech-1",
			Latitude:     38.0 + float64(i)*0.001,
			Longitude:    -120.5,
			Timestamp:    time.Now().UTC(),
		}))
	}

	w := doRequest(controller, http.MethodGet, "/technicians/tech-1/history?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Samples []tracking.Sample `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Samples, 2)
	// Limit keeps the most recent samples.
	assert.InDelta(t, 38.004, resp.Samples[1].Location.Latitude, 1e-9)
}

func TestFenceLifecycle(t *testing.T) {
	controller, _ := newTestController(t)

	body := `{"id":"site-1","name":"Install site","center":{"latitude":38.0,"longitude":-120.5},"radius_meters":150,"type":"work_site"}`
	w := doRequest(controller, http.MethodPost, "/fences", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(controller, http.MethodPost, "/fences", `{"id":"","radius_meters":10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(controller, http.MethodGet, "/fences", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "site-1")

	w = doRequest(controller, http.MethodGet, "/fences/export.kml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Placemark")

	w = doRequest(controller, http.MethodDelete, "/fences/site-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(controller, http.MethodGet, "/fences", "")
	assert.NotContains(t, w.Body.String(), "site-1")
}

func routeBody(t *testing.T, points []route.Waypoint, mode route.TravelMode) string {
	t.Helper()

	payload, err := json.Marshal(map[string]interface{}{
		"waypoints": points,
		"mode":      mode,
	})
	require.NoError(t, err)
	return string(bytes.TrimSpace(payload))
}

func TestOptimizeRoute(t *testing.T) {
	controller, _ := newTestController(t)

	points := []route.Waypoint{
		{ID: "start", Location: mustCoord(38.00, -120.50)},
		{ID: "far", Location: mustCoord(38.20, -120.50)},
		{ID: "near", Location: mustCoord(38.01, -120.50)},
		{ID: "mid", Location: mustCoord(38.10, -120.50)},
	}

	w := doRequest(controller, http.MethodPost, "/routes/optimize", routeBody(t, points, route.ModeDriving))
	require.Equal(t, http.StatusOK, w.Code)

	var result route.OptimizeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Points, 4)
	assert.Equal(t, "start", result.Points[0].ID)
	assert.Equal(t, "near", result.Points[1].ID)
	assert.Greater(t, result.DistanceSavedKm, 0.0)
}

func TestValidateRoute(t *testing.T) {
	controller, _ := newTestController(t)

	w := doRequest(controller, http.MethodPost, "/routes/validate",
		routeBody(t, []route.Waypoint{{ID: "only", Location: mustCoord(38, -120)}}, route.ModeDriving))
	require.Equal(t, http.StatusOK, w.Code)

	var result route.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
}

func TestSplitRouteRejectsBadLimit(t *testing.T) {
	controller, _ := newTestController(t)

	w := doRequest(controller, http.MethodPost, "/routes/split",
		`{"waypoints":[],"max_segment_km":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteCost(t *testing.T) {
	controller, _ := newTestController(t)

	body := `{
		"waypoints": [
			{"id":"a","location":{"latitude":38.0,"longitude":-120.5}},
			{"id":"b","location":{"latitude":38.1,"longitude":-120.5}}
		],
		"mode": "driving",
		"options": {"vehicle":"car","fuel_price_per_liter":2.0}
	}`
	w := doRequest(controller, http.MethodPost, "/routes/cost", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		DistanceKm float64 `json:"distance_km"`
		Cost       float64 `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.DistanceKm, 10.0)
	assert.Greater(t, resp.Cost, 0.0)
}

func mustCoord(lat, lon float64) geo.Coordinate {
	return geo.Coordinate{Latitude: lat, Longitude: lon}
}
