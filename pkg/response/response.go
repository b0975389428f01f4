// Package response is the JSON envelope shared by every API handler.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response. Code is 0 on success and the
// HTTP status otherwise.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a 200 response
func Success(c *gin.Context, data interface{}) {
	Status(c, http.StatusOK, data)
}

// Accepted sends a 202 response for work handed to a background worker
func Accepted(c *gin.Context, data interface{}) {
	Status(c, http.StatusAccepted, data)
}

// Status sends a successful response with an explicit status
func Status(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
