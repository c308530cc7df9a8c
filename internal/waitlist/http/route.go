package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/waitlist")

	group.Use(authMiddleware)
	{
		group.POST("", h.Enqueue)
		group.GET("/:id/position", h.Position)
		group.DELETE("/:id", h.Cancel)
		group.POST("/notifications/:id/action", h.Action)
	}

	staff := group.Group("")
	staff.Use(staffMiddleware)
	{
		// Static paths registered before the /:id routes.
		staff.GET("/config", h.GetConfig)
		staff.PUT("/config", h.UpdateConfig)
		staff.POST("/match", h.Match)
		staff.POST("/reindex", h.Reindex)

		staff.GET("", h.List)
		staff.GET("/:id", h.Get)
		staff.GET("/:id/notifications", h.Notifications)
		staff.POST("/:id/convert", h.Convert)
		staff.POST("/notifications/:id/delivery", h.Delivery)
	}
}
