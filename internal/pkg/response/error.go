package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string        `json:"error"`
	Kind  apperror.Kind `json:"kind,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code and
// taxonomy kind. Unknown errors default to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message, Kind: appErr.Kind})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
