package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Code: 0, Data: data})
}

func Error(c *gin.Context, status int, code int, message string) {
	c.JSON(status, envelope{Code: code, Message: message})
}
