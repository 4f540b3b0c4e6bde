package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/no-bike/software-aibot/internal/fusion"
)

type HealthHandler struct {
	startTime time.Time
	engine    *fusion.Engine
}

func NewHealthHandler(engine *fusion.Engine) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		engine:    engine,
	}
}

// Health returns the health status and uptime of the API.
//
// This endpoint is used by load balancers and monitoring systems
// to verify the service is running.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
		"time":   time.Now().UTC().Format(time.RFC3339),
		"fusion": h.engine.Status(),
	})
}
