package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	Handler *Handler
	router  *gin.Engine
}

func NewController(handler *Handler) *Controller {
	router := gin.Default()

	technicians := router.Group("/technicians")
	{
		technicians.GET("", handler.GetTechnicians)
		technicians.GET("/:technician_id/location", handler.GetLocation)
		technicians.GET("/:technician_id/history", handler.GetHistory)
	}

	fences := router.Group("/fences")
	{
		fences.GET("", handler.GetFences)
		fences.POST("", handler.AddFence)
		fences.DELETE("/:fence_id", handler.RemoveFence)
		fences.GET("/export.kml", handler.ExportFencesKML)
	}

	routes := router.Group("/routes")
	{
		routes.POST("/optimize", handler.OptimizeRoute)
		routes.POST("/validate", handler.ValidateRoute)
		routes.POST("/stats", handler.RouteStats)
		routes.POST("/compare", handler.CompareRoutes)
		routes.POST("/split", handler.SplitRoute)
		routes.POST("/cost", handler.EstimateRouteCost)
		routes.POST("/export.kml", handler.ExportRouteKML)
	}

	return &Controller{Handler: handler, router: router}
}

func (c *Controller) Run(port int32) error {
	return c.router.Run(fmt.Sprintf(":%d", port))
}
