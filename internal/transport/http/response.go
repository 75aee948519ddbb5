package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the uniform envelope for every JSON endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

func RespondSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Code:    http.StatusOK,
	})
}

func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Message: message,
		Code:    status,
	})
}
