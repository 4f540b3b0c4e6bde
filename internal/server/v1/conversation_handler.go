package v1

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/no-bike/software-aibot/internal/store"
	"github.com/no-bike/software-aibot/internal/store/model"
	"github.com/no-bike/software-aibot/pkg/api"
)

const defaultShareTTL = 7 * 24 * time.Hour

type ConversationHandler struct {
	repo store.Repository
}

func NewConversationHandler(repo store.Repository) *ConversationHandler {
	return &ConversationHandler{repo: repo}
}

func (h *ConversationHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	convs, err := h.repo.Conversations().List(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to list conversations", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	id := c.Param("id")

	conv, err := h.repo.Conversations().Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = c.Error(api.NotFoundError("conversation '" + id + "' does not exist"))
			return
		}
		_ = c.Error(api.InternalError("Failed to load conversation", err.Error()))
		return
	}

	msgs, err := h.repo.Messages().ListByConversation(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to load messages", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}

func (h *ConversationHandler) UpdateTitle(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.BadRequestError("title is required"))
		return
	}

	if err := h.repo.Conversations().UpdateTitle(c.Request.Context(), id, req.Title); err != nil {
		_ = c.Error(api.InternalError("Failed to rename conversation", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "title": req.Title})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Conversations().Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(api.InternalError("Failed to delete conversation", err.Error()))
		return
	}

	c.Status(http.StatusNoContent)
}

// Share mints a time-limited token granting read access to a conversation.
func (h *ConversationHandler) Share(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.repo.Conversations().Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = c.Error(api.NotFoundError("conversation '" + id + "' does not exist"))
			return
		}
		_ = c.Error(api.InternalError("Failed to load conversation", err.Error()))
		return
	}

	share := &model.Share{
		ID:             uuid.NewString(),
		ConversationID: id,
		Token:          uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		ExpiresAt:      sql.NullTime{Time: time.Now().UTC().Add(defaultShareTTL), Valid: true},
	}

	if err := h.repo.Shares().Create(c.Request.Context(), share); err != nil {
		_ = c.Error(api.InternalError("Failed to create share link", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      share.Token,
		"expires_at": share.ExpiresAt.Time,
	})
}

// GetShared resolves a share token back to its conversation and messages. It
// is mounted outside the authenticated group.
func (h *ConversationHandler) GetShared(c *gin.Context) {
	token := c.Param("token")

	share, err := h.repo.Shares().GetByToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = c.Error(api.NotFoundError("share link does not exist"))
			return
		}
		_ = c.Error(api.InternalError("Failed to resolve share link", err.Error()))
		return
	}

	if share.ExpiresAt.Valid && share.ExpiresAt.Time.Before(time.Now().UTC()) {
		_ = c.Error(api.NotFoundError("share link has expired"))
		return
	}

	conv, err := h.repo.Conversations().Get(c.Request.Context(), share.ConversationID)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to load conversation", err.Error()))
		return
	}

	msgs, err := h.repo.Messages().ListByConversation(c.Request.Context(), share.ConversationID)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to load messages", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}
