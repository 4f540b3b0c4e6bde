package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/no-bike/software-aibot/internal/gateway"
)

type ModelHandler struct {
	service gateway.Service
}

func NewModelHandler(service gateway.Service) *ModelHandler {
	return &ModelHandler{service: service}
}

func (h *ModelHandler) List(c *gin.Context) {
	models := h.service.ListModels(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   models,
	})
}
