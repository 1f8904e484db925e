package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness.
// GET /health
func Health(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
