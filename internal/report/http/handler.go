package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/response"
	"github.com/moosecreates/tailtown-sub004/internal/report"
)

const (
	dateLayout      = "2006-01-02"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type OccupancyQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

type Handler struct {
	service report.Service
}

func NewHandler(service report.Service) *Handler {
	return &Handler{service: service}
}

// Occupancy streams the occupancy workbook as an attachment.
func (h *Handler) Occupancy(c *gin.Context) {
	var q OccupancyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	from, err := time.Parse(dateLayout, q.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be formatted as YYYY-MM-DD"})
		return
	}
	to, err := time.Parse(dateLayout, q.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be formatted as YYYY-MM-DD"})
		return
	}

	buf, err := h.service.Occupancy(c.Request.Context(), auth.GetTenantID(c), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("occupancy_%s_%s.xlsx", q.From, q.To)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
