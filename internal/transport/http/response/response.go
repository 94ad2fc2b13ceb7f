package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgCreateFailed       = "error creating user"
	MsgInternal           = "internal error"
	MsgInvalidCredentials = "invalid user credentials"
)

type ErrorBody struct {
	Error string `json:"error"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Text writes a plain-text 200 response.
func Text(c *gin.Context, body string) {
	c.String(http.StatusOK, body)
}

// Empty writes a status with no body.
func Empty(c *gin.Context, httpStatus int) {
	c.Status(httpStatus)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorBody{Error: message})
}
