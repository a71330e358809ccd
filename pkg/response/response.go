package response

import (
	"net/http"

	"AegisGuard/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Body is the uniform JSON envelope for every API response.
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

// Fail writes a 400 envelope.
func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: http.StatusBadRequest, Message: message, Data: data})
}

// Error writes an envelope derived from a coded error. The HTTP status is the
// first three digits of the code, falling back to 500.
func Error(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := code / 100
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Body{Code: code, Message: errors.GetMessage(err)})
}
