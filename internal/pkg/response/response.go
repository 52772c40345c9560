package response

import (
	"net/http"

	"arcana-app/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform API response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail writes err with the status derived from its kind and aborts the chain.
func Fail(c *gin.Context, err error) {
	c.Abort()
	_ = c.Error(err)
	c.JSON(apperr.StatusOf(err), Envelope{Success: false, Error: apperr.PublicMessage(err)})
}

// Message writes a fixed-status failure without going through an error kind.
func Message(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: message})
}
