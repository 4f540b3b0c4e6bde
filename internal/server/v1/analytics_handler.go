package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/no-bike/software-aibot/internal/store"
	"github.com/no-bike/software-aibot/pkg/api"
)

type AnalyticsHandler struct {
	repo store.Repository
}

func NewAnalyticsHandler(repo store.Repository) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo}
}

// RecentFusions returns the latest fusion operations with their method,
// language and latency, newest first.
func (h *AnalyticsHandler) RecentFusions(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		_ = c.Error(api.BadRequestError("Invalid 'limit' parameter"))
		return
	}

	logs, err := h.repo.FusionLogs().GetRecent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch fusion logs", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   logs,
	})
}
