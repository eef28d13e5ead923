package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charging-robots/internal/api/models"
)

// ErrorHandler converts handler panics into the API's standard error body.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		message := "An unexpected error occurred"
		switch v := recovered.(type) {
		case error:
			message = v.Error()
		case string:
			message = v
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: message},
		})
		c.Abort()
	})
}
