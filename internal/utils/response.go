package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope statuses understood by the voice agent.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success sends a status:success body. Extra fields are merged at the top level.
func Success(c *gin.Context, message string, fields gin.H) {
	c.JSON(http.StatusOK, envelope(StatusSuccess, message, fields))
}

// Error sends a status:error body. The HTTP status is still 200: the agent
// reads the outcome from the body.
func Error(c *gin.Context, message string, fields gin.H) {
	c.JSON(http.StatusOK, envelope(StatusError, message, fields))
}

// XML sends a messaging provider reply.
func XML(c *gin.Context, body string) {
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(body))
}

func envelope(status, message string, fields gin.H) gin.H {
	body := gin.H{"status": status}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	return body
}
