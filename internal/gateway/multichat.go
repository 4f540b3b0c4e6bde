package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/internal/analytics"
	"github.com/no-bike/software-aibot/internal/fusion"
	"github.com/no-bike/software-aibot/internal/store"
	"github.com/no-bike/software-aibot/internal/store/model"
	"github.com/no-bike/software-aibot/pkg/api"
)

// MultiChat orchestrates the fan-out chat flow: persist the user message,
// query every selected model, optionally fuse the answers, persist the
// replies and log fusion provenance.
type MultiChat struct {
	logger   *zap.Logger
	service  Service
	engine   *fusion.Engine
	repo     store.Repository
	ingestor analytics.Ingestor
}

func NewMultiChat(logger *zap.Logger, service Service, engine *fusion.Engine, repo store.Repository, ingestor analytics.Ingestor) *MultiChat {
	return &MultiChat{
		logger:   logger,
		service:  service,
		engine:   engine,
		repo:     repo,
		ingestor: ingestor,
	}
}

func (m *MultiChat) Handle(ctx context.Context, req *api.MultiChatRequest) (*api.MultiChatResponse, error) {
	history, convID, err := m.prepareConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	candidates, err := m.service.CollectCandidates(ctx, req.Message, req.ModelIDs, history)
	if err != nil {
		return nil, err
	}

	resp := &api.MultiChatResponse{Responses: candidates}

	if req.Fuse {
		start := time.Now()
		result, err := m.engine.RankAndFuse(ctx, &api.FusionRequest{
			Query:       req.Message,
			Candidates:  candidates,
			Instruction: req.Instruction,
			TopK:        req.TopK,
			Mode:        api.ModeRankAndFuse,
		})
		if err != nil {
			// zero candidates is impossible here; treat anything else as a
			// degraded fusion rather than a failed chat
			m.logger.Error("fusion rejected request", zap.Error(err))
		} else {
			resp.Fusion = result
			m.recordFusion(convID, req, result, time.Since(start))
		}
	}

	m.persistExchange(ctx, convID, req, resp)

	return resp, nil
}

// prepareConversation loads history for an existing conversation or creates a
// new one when an ID was supplied but never seen before.
func (m *MultiChat) prepareConversation(ctx context.Context, req *api.MultiChatRequest) ([]api.ChatMessage, string, error) {
	if req.ConversationID == "" {
		return nil, "", nil
	}

	conv, err := m.repo.Conversations().Get(ctx, req.ConversationID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, "", err
		}

		modelsJSON, _ := json.Marshal(req.ModelIDs)
		now := time.Now().UTC()
		conv = &model.Conversation{
			ID:        req.ConversationID,
			Title:     truncateTitle(req.Message),
			Models:    string(modelsJSON),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := m.repo.Conversations().Create(ctx, conv); err != nil {
			return nil, "", err
		}
		return nil, conv.ID, nil
	}

	msgs, err := m.repo.Messages().ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, "", err
	}

	history := make([]api.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		history = append(history, api.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	return history, conv.ID, nil
}

func (m *MultiChat) persistExchange(ctx context.Context, convID string, req *api.MultiChatRequest, resp *api.MultiChatResponse) {
	if convID == "" {
		return
	}

	now := time.Now().UTC()
	err := m.repo.WithTx(ctx, func(repo store.Repository) error {
		if err := repo.Messages().Create(ctx, &model.Message{
			ID:             uuid.NewString(),
			ConversationID: convID,
			Role:           "user",
			Content:        req.Message,
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		for _, c := range resp.Responses {
			if err := repo.Messages().Create(ctx, &model.Message{
				ID:             uuid.NewString(),
				ConversationID: convID,
				Role:           "assistant",
				ModelID:        c.ModelID,
				Content:        c.Content,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}

		if resp.Fusion != nil {
			if err := repo.Messages().Create(ctx, &model.Message{
				ID:             uuid.NewString(),
				ConversationID: convID,
				Role:           "assistant",
				ModelID:        "fusion",
				Content:        resp.Fusion.FusedContent,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		// persistence is best-effort; the answers were already produced
		m.logger.Error("failed to persist chat exchange", zap.String("conversation", convID), zap.Error(err))
	}
}

func (m *MultiChat) recordFusion(convID string, req *api.MultiChatRequest, result *api.FusionResult, elapsed time.Duration) {
	log := &model.FusionLog{
		ID:             uuid.NewString(),
		Query:          req.Message,
		Mode:           string(api.ModeRankAndFuse),
		Method:         string(result.FusionMethod),
		Language:       string(result.Language),
		CandidateCount: len(result.RankedResponses),
		TopK:           req.TopK,
		LatencyMS:      elapsed.Milliseconds(),
		Diagnostic:     result.Diagnostic,
		CreatedAt:      time.Now().UTC(),
	}
	if convID != "" {
		log.ConversationID = sql.NullString{String: convID, Valid: true}
	}

	m.ingestor.Log(log)
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= 30 {
		return s
	}
	return string(runes[:30]) + "…"
}
