package store

import (
	"context"

	"github.com/no-bike/software-aibot/internal/store/model"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Conversations() ConversationRepository
	Messages() MessageRepository
	FusionLogs() FusionLogRepository
	Shares() ShareRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	Get(ctx context.Context, id string) (*model.Conversation, error)
	List(ctx context.Context, limit int) ([]model.Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error)
}

type FusionLogRepository interface {
	// Log stores a completed fusion operation for observability.
	Log(ctx context.Context, log *model.FusionLog) error
	// GetRecent returns the last N fusion logs.
	GetRecent(ctx context.Context, limit int) ([]model.FusionLog, error)
}

type ShareRepository interface {
	Create(ctx context.Context, share *model.Share) error
	GetByToken(ctx context.Context, token string) (*model.Share, error)
	Delete(ctx context.Context, id string) error
}
