package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"` // seconds
}

// Health returns a handler for GET /health that reports uptime since started.
func Health(started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		respondJSON(c, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: now.UTC(),
			Uptime:    now.Sub(started).Seconds(),
		})
	}
}
