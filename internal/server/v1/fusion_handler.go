package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/no-bike/software-aibot/internal/fusion"
	"github.com/no-bike/software-aibot/internal/server/validator"
	"github.com/no-bike/software-aibot/pkg/api"
)

type FusionHandler struct {
	engine *fusion.Engine
}

func NewFusionHandler(engine *fusion.Engine) *FusionHandler {
	return &FusionHandler{engine: engine}
}

// RankAndFuse runs the full pipeline: rank, language gate, fuse, fallback.
func (h *FusionHandler) RankAndFuse(c *gin.Context) {
	var req api.FusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	result, err := h.engine.RankAndFuse(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, fusion.ErrNoCandidates) {
			_ = c.Error(api.BadRequestError("at least one candidate is required"))
			return
		}
		_ = c.Error(api.InternalError("Fusion Failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Rank orders candidates by quality without fusing.
func (h *FusionHandler) Rank(c *gin.Context) {
	var req api.FusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	ranked, err := h.engine.RankResponses(c.Request.Context(), req.Query, req.Candidates, req.Instruction)
	if err != nil {
		_ = c.Error(api.BadRequestError("at least one candidate is required"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranked_responses": ranked})
}

// Fuse synthesizes one answer from candidates in their given order.
func (h *FusionHandler) Fuse(c *gin.Context) {
	var req api.FusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	content, err := h.engine.FuseResponses(c.Request.Context(), req.Query, req.Candidates, req.Instruction, req.TopK)
	if err != nil {
		_ = c.Error(api.BadRequestError("at least one candidate is required"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"fused_content": content})
}
