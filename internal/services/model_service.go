package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"whichmodel/internal/assets"
	"whichmodel/internal/events"
	"whichmodel/internal/models"
	"whichmodel/internal/repositories"
)

var ErrUnknownModel = errors.New("unknown model")

type ModelConfigService interface {
	Startup(ctx context.Context) error
	ListModelGroups() ([]models.LLMModelGroup, error)
	SetModelEnabled(modelID string, enabled bool) (*models.LLMModel, error)
	SetProviderEnabled(provider string, enabled bool) ([]models.LLMModel, error)
	GetModel(modelID string) (*models.LLMModel, error)
	EnabledModelIDs() []string
	ModelDisplayName(modelID string) string
}

type modelConfigService struct {
	repo repositories.ModelSettingRepository
	log  *zap.Logger
	ctx  context.Context
	data []byte

	mu            sync.RWMutex
	providerOrder []string
	providerNames map[string]string
	order         []string
	models        map[string]*catalogModel
	settings      map[string]bool
}

type catalogModel struct {
	ID          string
	ProviderID  string
	Provider    string
	DisplayName string
	Default     bool
}

type rawModelFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Models      []rawModel `json:"models"`
}

type rawModel struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Enabled     *bool  `json:"enabled,omitempty"`
}

func NewModelConfigService(repo repositories.ModelSettingRepository, log *zap.Logger) ModelConfigService {
	return newModelConfigService(repo, log, assets.ModelsData)
}

// NewModelConfigServiceFromData builds the service over a caller-supplied catalogue.
func NewModelConfigServiceFromData(repo repositories.ModelSettingRepository, log *zap.Logger, data []byte) ModelConfigService {
	return newModelConfigService(repo, log, data)
}

func newModelConfigService(repo repositories.ModelSettingRepository, log *zap.Logger, data []byte) *modelConfigService {
	if log == nil {
		log = zap.NewNop()
	}
	return &modelConfigService{
		repo:          repo,
		log:           log,
		ctx:           context.Background(),
		data:          data,
		models:        make(map[string]*catalogModel),
		settings:      make(map[string]bool),
		providerNames: make(map[string]string),
	}
}

func (s *modelConfigService) Startup(ctx context.Context) error {
	s.ctx = ctx

	var parsed rawModelFile
	if err := json.Unmarshal(s.data, &parsed); err != nil {
		return fmt.Errorf("parse models asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providerOrder = make([]string, 0, len(parsed.Providers))
	s.order = nil
	for _, provider := range parsed.Providers {
		providerID := strings.TrimSpace(provider.ID)
		if providerID == "" {
			continue
		}
		providerName := strings.TrimSpace(provider.DisplayName)
		s.providerNames[providerID] = providerName
		s.providerOrder = append(s.providerOrder, providerID)
		for _, mdl := range provider.Models {
			id := strings.TrimSpace(mdl.ID)
			if !strings.Contains(id, "/") {
				return fmt.Errorf("model %q of provider %s: identifier must be provider/name", id, providerID)
			}
			if _, dup := s.models[id]; dup {
				return fmt.Errorf("model %s listed twice", id)
			}
			displayName := strings.TrimSpace(mdl.DisplayName)
			if displayName == "" {
				displayName = models.ModelDisplayName(id)
			}
			s.models[id] = &catalogModel{
				ID:          id,
				ProviderID:  providerID,
				Provider:    providerName,
				DisplayName: displayName,
				Default:     mdl.Enabled == nil || *mdl.Enabled,
			}
			s.order = append(s.order, id)
		}
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load model settings: %w", err)
	}
	for _, setting := range existing {
		s.settings[setting.ModelKey] = setting.Enabled
	}
	for _, id := range s.order {
		if _, ok := s.settings[id]; ok {
			continue
		}
		def := s.models[id]
		if _, err := s.repo.Upsert(ctx, id, def.ProviderID, def.Default); err != nil {
			return fmt.Errorf("seed model setting for %s: %w", id, err)
		}
		s.settings[id] = def.Default
	}

	s.log.Info("model catalogue loaded", zap.Int("providers", len(s.providerOrder)), zap.Int("models", len(s.order)))
	return nil
}

func (s *modelConfigService) ListModelGroups() ([]models.LLMModelGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.LLMModelGroup, 0, len(s.providerOrder))
	for _, providerID := range s.providerOrder {
		group := models.LLMModelGroup{
			ProviderID:   providerID,
			ProviderName: s.providerName(providerID),
		}
		var modelsForProvider []models.LLMModel
		for _, mdl := range s.models {
			if mdl.ProviderID != providerID {
				continue
			}
			modelsForProvider = append(modelsForProvider, s.toLLMModel(mdl))
		}
		sortByDisplayName(modelsForProvider)
		group.Models = modelsForProvider
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *modelConfigService) SetModelEnabled(modelID string, enabled bool) (*models.LLMModel, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, fmt.Errorf("model id is required")
	}

	s.mu.Lock()
	catalog, ok := s.models[modelID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	if _, err := s.repo.Upsert(s.ctx, modelID, catalog.ProviderID, enabled); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.settings[modelID] = enabled
	model := s.toLLMModel(catalog)
	s.mu.Unlock()

	events.Emit(s.ctx, events.ModelsUpdated, []models.LLMModel{model})
	return &model, nil
}

func (s *modelConfigService) SetProviderEnabled(provider string, enabled bool) ([]models.LLMModel, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}

	s.mu.Lock()
	if _, ok := s.providerNames[provider]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("provider %s not found", provider)
	}
	if err := s.repo.SetProviderEnabled(s.ctx, provider, enabled); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	updated := make([]models.LLMModel, 0)
	for _, mdl := range s.models {
		if mdl.ProviderID != provider {
			continue
		}
		s.settings[mdl.ID] = enabled
		updated = append(updated, s.toLLMModel(mdl))
	}
	s.mu.Unlock()

	sortByDisplayName(updated)
	events.Emit(s.ctx, events.ModelsUpdated, updated)
	return updated, nil
}

func (s *modelConfigService) GetModel(modelID string) (*models.LLMModel, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, fmt.Errorf("model id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog, ok := s.models[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	model := s.toLLMModel(catalog)
	return &model, nil
}

// EnabledModelIDs returns the enabled identifiers in catalogue order.
func (s *modelConfigService) EnabledModelIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if s.settings[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// ModelDisplayName prefers the catalogue name and falls back to the part after "/".
func (s *modelConfigService) ModelDisplayName(modelID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if mdl, ok := s.models[modelID]; ok {
		return mdl.DisplayName
	}
	return models.ModelDisplayName(modelID)
}

func (s *modelConfigService) providerName(providerID string) string {
	if name, ok := s.providerNames[providerID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return providerID
}

func (s *modelConfigService) toLLMModel(mdl *catalogModel) models.LLMModel {
	return models.LLMModel{
		ID:           mdl.ID,
		DisplayName:  mdl.DisplayName,
		ProviderID:   mdl.ProviderID,
		ProviderName: mdl.Provider,
		Enabled:      s.settings[mdl.ID],
	}
}

func sortByDisplayName(list []models.LLMModel) {
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].DisplayName) < strings.ToLower(list[j].DisplayName)
	})
}
