package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/reports")

	group.Use(authMiddleware, staffMiddleware)
	{
		group.GET("/occupancy", h.Occupancy)
	}
}
