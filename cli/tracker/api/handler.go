package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/geotrack/cli/tracker/domain"
	"github.com/fieldops/geotrack/libs/geofence"
	"github.com/fieldops/geotrack/libs/route"
)

type Handler struct {
	Hub *domain.Hub
}

func NewHandler(hub *domain.Hub) *Handler {
	return &Handler{Hub: hub}
}

func (h *Handler) GetTechnicians(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"technicians": h.Hub.Technicians()})
}

func (h *Handler) GetLocation(c *gin.Context) {
	session, ok := h.Hub.Session(c.Param("technician_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown technician"})
		return
	}

	loc, ok := session.LastKnown()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no position fix yet"})
		return
	}

	c.JSON(http.StatusOK, loc)
}

func (h *Handler) GetHistory(c *gin.Context) {
	session, ok := h.Hub.Session(c.Param("technician_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown technician"})
		return
	}

	history := session.History()

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err == nil && limit > 0 && limit < len(history) {
			history = history[len(history)-limit:]
		}
	}

	c.JSON(http.StatusOK, gin.H{"samples": history})
}

func (h *Handler) GetFences(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fences": h.Hub.Fences().List()})
}

func (h *Handler) AddFence(c *gin.Context) {
	var fence geofence.Fence
	if err := c.ShouldBindJSON(&fence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Hub.Fences().Add(fence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, fence)
}

func (h *Handler) RemoveFence(c *gin.Context) {
	h.Hub.Fences().Remove(c.Param("fence_id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) ExportFencesKML(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.google-earth.kml+xml")
	if err := h.Hub.Fences().WriteKML(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type routeRequest struct {
	Waypoints []route.Waypoint `json:"waypoints"`
	Mode      route.TravelMode `json:"mode"`
}

func (h *Handler) OptimizeRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, route.Optimize(req.Waypoints))
}

func (h *Handler) ValidateRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, route.ValidateRoute(req.Waypoints))
}

func (h *Handler) RouteStats(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, route.RouteStats(req.Waypoints, req.Mode))
}

type compareRequest struct {
	RouteA []route.Waypoint `json:"route_a"`
	RouteB []route.Waypoint `json:"route_b"`
	Mode   route.TravelMode `json:"mode"`
}

func (h *Handler) CompareRoutes(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, route.CompareRoutes(req.RouteA, req.RouteB, req.Mode))
}

type splitRequest struct {
	Waypoints    []route.Waypoint `json:"waypoints"`
	MaxSegmentKm float64          `json:"max_segment_km"`
}

func (h *Handler) SplitRoute(c *gin.Context) {
	var req splitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxSegmentKm <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_segment_km must be positive"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"segments": route.SplitRouteByDistance(req.Waypoints, req.MaxSegmentKm)})
}

type costRequest struct {
	Waypoints []route.Waypoint  `json:"waypoints"`
	Mode      route.TravelMode  `json:"mode"`
	Options   route.CostOptions `json:"options"`
}

func (h *Handler) EstimateRouteCost(c *gin.Context) {
	var req costRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	distanceKm := route.Distance(req.Waypoints)
	c.JSON(http.StatusOK, gin.H{
		"distance_km": distanceKm,
		"cost":        route.EstimateRouteCost(distanceKm, req.Mode, req.Options),
	})
}

func (h *Handler) ExportRouteKML(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := c.Query("name")
	if name == "" {
		name = "Route"
	}

	c.Header("Content-Type", "application/vnd.google-earth.kml+xml")
	if err := route.WriteKML(c.Writer, name, req.Waypoints); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
