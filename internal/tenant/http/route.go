package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/tenants")

	group.Use(authMiddleware, staffMiddleware)
	{
		group.POST("", h.Create)
		group.GET("/:id", h.Get)
	}
}
