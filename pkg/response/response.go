package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the uniform API envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Error sends an error response with the given HTTP status.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Code: code, Message: message})
}

// BadRequest sends a 400.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound sends a 404.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict sends a 409.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError sends a 500.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
