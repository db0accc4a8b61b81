package mocks

import (
	"context"
	"sync"

	"whichmodel/internal/models"
)

// BatchCatalogMock serves a fixed prompt list and counts refreshes.
type BatchCatalogMock struct {
	PromptList           []models.Prompt
	RefreshResponsesFunc func(ctx context.Context) error
	HasResponseFunc      func(promptID int, model string) bool

	mu        sync.Mutex
	refreshes int
}

func (m *BatchCatalogMock) RefreshResponses(ctx context.Context) error {
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()
	if m.RefreshResponsesFunc != nil {
		return m.RefreshResponsesFunc(ctx)
	}
	return nil
}

func (m *BatchCatalogMock) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

func (m *BatchCatalogMock) HasResponse(promptID int, model string) bool {
	if m.HasResponseFunc != nil {
		return m.HasResponseFunc(promptID, model)
	}
	return false
}

func (m *BatchCatalogMock) PromptsByCategory(category string) []models.Prompt {
	var out []models.Prompt
	for _, p := range m.PromptList {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
