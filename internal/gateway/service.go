package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/internal/llm"
	"github.com/no-bike/software-aibot/internal/store/cache"
	"github.com/no-bike/software-aibot/pkg/api"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrNoModelAnswered  = errors.New("no model produced an answer")
)

const modelListCacheKey = "gateway:models"

// Service defines the business logic for dispatching chat requests.
type Service interface {
	// RegisterProvider registers a provider and its model routes.
	RegisterProvider(p llm.Provider, models map[string]string)

	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
	StreamChat(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error)

	// CollectCandidates fans one message out to several models concurrently
	// and returns the materialized answers in the order the models were
	// requested. Models that fail are skipped; an error is returned only when
	// every model failed.
	CollectCandidates(ctx context.Context, message string, modelIDs []string, history []api.ChatMessage) ([]api.Candidate, error)

	ListModels(ctx context.Context) []api.ModelInfo
}

type service struct {
	logger    *zap.Logger
	cache     cache.CacheService
	mu        sync.RWMutex
	providers map[string]llm.Provider
	registry  *registry
}

func NewService(logger *zap.Logger, cacheSvc cache.CacheService) Service {
	if cacheSvc == nil {
		cacheSvc = cache.Noop{}
	}
	return &service{
		logger:    logger,
		cache:     cacheSvc,
		providers: make(map[string]llm.Provider),
		registry:  newRegistry(),
	}
}

func (s *service) RegisterProvider(p llm.Provider, models map[string]string) {
	s.mu.Lock()
	s.providers[p.Name()] = p
	s.mu.Unlock()

	if len(models) == 0 {
		// no explicit routes: the provider ID doubles as a model ID
		s.registry.addRoute(p.Name(), p.Name(), "")
	}

	for modelID, upstreamID := range models {
		s.registry.addRoute(modelID, p.Name(), upstreamID)
	}

	_ = s.cache.Delete(context.Background(), modelListCacheKey)
}

// providerForModel resolves the provider and the upstream model ID for a
// public model ID.
func (s *service) providerForModel(modelID string) (llm.Provider, string, error) {
	providerID, upstreamID, err := s.registry.resolveRoute(modelID)
	if err != nil {
		return nil, "", api.BadRequestError(fmt.Sprintf("route resolution failed for model '%s': %v", modelID, err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, exists := s.providers[providerID]; exists {
		return p, upstreamID, nil
	}

	return nil, "", api.ProviderError(fmt.Sprintf("provider '%s' configured but not active/loaded", providerID), ErrProviderNotFound)
}

func (s *service) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	provider, upstreamModelID, err := s.providerForModel(req.Model)
	if err != nil {
		return nil, err
	}

	reqClone := *req
	reqClone.Model = upstreamModelID

	start := time.Now()
	resp, err := provider.Chat(ctx, &reqClone)
	if err != nil {
		return nil, fmt.Errorf("provider execution failed: %w", err)
	}

	s.logger.Debug("chat dispatched",
		zap.String("model", req.Model),
		zap.String("provider", provider.Name()),
		zap.Duration("latency", time.Since(start)),
	)

	return resp, nil
}

func (s *service) StreamChat(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	provider, upstreamID, err := s.providerForModel(req.Model)
	if err != nil {
		s.logger.Warn("Provider routing failed for stream", zap.String("model", req.Model), zap.Error(err))
		return nil, err
	}

	reqClone := *req
	reqClone.Model = upstreamID

	return provider.Stream(ctx, &reqClone)
}

func (s *service) CollectCandidates(ctx context.Context, message string, modelIDs []string, history []api.ChatMessage) ([]api.Candidate, error) {
	if len(modelIDs) == 0 {
		return nil, api.BadRequestError("model_ids must not be empty")
	}

	messages := make([]api.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, api.ChatMessage{Role: "user", Content: message})

	type slot struct {
		candidate api.Candidate
		err       error
	}
	slots := make([]slot, len(modelIDs))

	var wg sync.WaitGroup
	for i, modelID := range modelIDs {
		wg.Add(1)
		go func(i int, modelID string) {
			defer wg.Done()

			resp, err := s.Chat(ctx, &api.ChatRequest{
				Model:    modelID,
				Messages: messages,
			})
			if err != nil {
				slots[i].err = err
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
				slots[i].err = fmt.Errorf("model %s returned no choices", modelID)
				return
			}

			slots[i].candidate = api.Candidate{
				ModelID: modelID,
				Content: resp.Choices[0].Message.Content,
			}
		}(i, modelID)
	}
	wg.Wait()

	candidates := make([]api.Candidate, 0, len(modelIDs))
	for i, sl := range slots {
		if sl.err != nil {
			s.logger.Warn("model failed during fan-out",
				zap.String("model", modelIDs[i]),
				zap.Error(sl.err),
			)
			continue
		}
		candidates = append(candidates, sl.candidate)
	}

	if len(candidates) == 0 {
		return nil, ErrNoModelAnswered
	}

	return candidates, nil
}

func (s *service) ListModels(ctx context.Context) []api.ModelInfo {
	var cached []api.ModelInfo
	if err := s.cache.Get(ctx, modelListCacheKey, &cached); err == nil {
		return cached
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]api.ModelInfo, 0)
	for _, id := range s.registry.modelIDs() {
		providerID, ok := s.registry.providerFor(id)
		if !ok {
			continue
		}
		p, exists := s.providers[providerID]
		if !exists {
			continue
		}
		infos = append(infos, api.ModelInfo{
			ID:       id,
			Provider: providerID,
			Type:     p.Type(),
			OwnedBy:  "system",
		})
	}

	_ = s.cache.Set(ctx, modelListCacheKey, infos, 5*time.Minute)

	return infos
}
