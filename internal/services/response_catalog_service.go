package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"whichmodel/internal/events"
	"whichmodel/internal/models"
)

// ResponseCatalogService caches the backend's prompts and responses for the UI.
type ResponseCatalogService interface {
	Startup(ctx context.Context)
	Reload(ctx context.Context) error
	LoadPrompts(ctx context.Context) error
	RefreshResponses(ctx context.Context) error
	Prompts() []models.Prompt
	Responses() []models.GeneratedResponse
	Categories() []string
	PromptsByCategory(category string) []models.Prompt
	HasResponse(promptID int, model string) bool
	PromptsWithResponses() []models.Prompt
	ResponsesForPrompt(promptID int) []models.GeneratedResponse
	DeleteResponse(ctx context.Context, promptID int, model string) error
	GenerateForPrompt(ctx context.Context, promptID int, modelIDs []string) ([]models.GenerationResult, error)
	BackendConfig(ctx context.Context) (json.RawMessage, error)
}

// CatalogCounts is the payload of the responses:updated event.
type CatalogCounts struct {
	Prompts   int `json:"prompts"`
	Responses int `json:"responses"`
}

type responseCatalogService struct {
	backend Backend
	log     *zap.Logger
	ctx     context.Context

	mu        sync.RWMutex
	prompts   []models.Prompt
	responses []models.GeneratedResponse
}

func NewResponseCatalogService(backend Backend, log *zap.Logger) ResponseCatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &responseCatalogService{backend: backend, log: log, ctx: context.Background()}
}

func (s *responseCatalogService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *responseCatalogService) Reload(ctx context.Context) error {
	if err := s.LoadPrompts(ctx); err != nil {
		return err
	}
	return s.RefreshResponses(ctx)
}

func (s *responseCatalogService) LoadPrompts(ctx context.Context) error {
	prompts, err := s.backend.ListPrompts(ctx)
	if err != nil {
		s.log.Error("load prompts", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.prompts = prompts
	counts := s.countsLocked()
	s.mu.Unlock()

	events.Emit(s.ctx, events.ResponsesUpdated, counts)
	return nil
}

func (s *responseCatalogService) RefreshResponses(ctx context.Context) error {
	responses, err := s.backend.ListResponses(ctx)
	if err != nil {
		s.log.Error("load responses", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.responses = responses
	counts := s.countsLocked()
	s.mu.Unlock()

	s.log.Debug("responses refreshed", zap.Int("count", len(responses)))
	events.Emit(s.ctx, events.ResponsesUpdated, counts)
	return nil
}

func (s *responseCatalogService) countsLocked() CatalogCounts {
	return CatalogCounts{Prompts: len(s.prompts), Responses: len(s.responses)}
}

func (s *responseCatalogService) Prompts() []models.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Prompt(nil), s.prompts...)
}

func (s *responseCatalogService) Responses() []models.GeneratedResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.GeneratedResponse(nil), s.responses...)
}

// Categories returns category labels in first-seen prompt order.
func (s *responseCatalogService) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Uniq(lo.Map(s.prompts, func(p models.Prompt, _ int) string { return p.Category }))
}

func (s *responseCatalogService) PromptsByCategory(category string) []models.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.prompts, func(p models.Prompt, _ int) bool { return p.Category == category })
}

func (s *responseCatalogService) HasResponse(promptID int, model string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.ContainsBy(s.responses, func(r models.GeneratedResponse) bool { return r.Matches(promptID, model) })
}

func (s *responseCatalogService) PromptsWithResponses() []models.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answered := make(map[int]struct{}, len(s.responses))
	for _, r := range s.responses {
		if r.PromptID != nil {
			answered[*r.PromptID] = struct{}{}
		}
	}
	return lo.Filter(s.prompts, func(p models.Prompt, _ int) bool {
		_, ok := answered[p.ID]
		return ok
	})
}

func (s *responseCatalogService) ResponsesForPrompt(promptID int) []models.GeneratedResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.responses, func(r models.GeneratedResponse, _ int) bool {
		return r.PromptID != nil && *r.PromptID == promptID
	})
}

func (s *responseCatalogService) DeleteResponse(ctx context.Context, promptID int, model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model is required")
	}
	if err := s.backend.DeleteResponse(ctx, promptID, model); err != nil {
		s.log.Error("delete response", zap.Int("promptId", promptID), zap.String("model", model), zap.Error(err))
		return err
	}
	return s.RefreshResponses(ctx)
}

// GenerateForPrompt runs the single-prompt batch form and refreshes the cache.
func (s *responseCatalogService) GenerateForPrompt(ctx context.Context, promptID int, modelIDs []string) ([]models.GenerationResult, error) {
	modelIDs = lo.Uniq(lo.Compact(lo.Map(modelIDs, func(m string, _ int) string { return strings.TrimSpace(m) })))
	if len(modelIDs) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}
	results, err := s.backend.GenerateBatch(ctx, promptID, modelIDs)
	if err != nil {
		return nil, err
	}
	if err := s.RefreshResponses(ctx); err != nil {
		s.log.Warn("refresh after generate", zap.Error(err))
	}
	return results, nil
}

func (s *responseCatalogService) BackendConfig(ctx context.Context) (json.RawMessage, error) {
	return s.backend.GetConfig(ctx)
}
