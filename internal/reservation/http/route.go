package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/reservations")

	group.Use(authMiddleware)
	{
		// Static paths registered before the /:id routes.
		group.POST("/conflict-check", h.ConflictCheck)

		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Update)
		group.POST("/:id/cancel", h.Cancel)
	}

	staff := group.Group("")
	staff.Use(staffMiddleware)
	{
		staff.POST("/allocate-resource", h.AllocateResource)
		staff.POST("/:id/check-in", h.CheckIn)
		staff.POST("/:id/complete", h.Complete)
		staff.DELETE("/:id", h.Delete)
	}
}
