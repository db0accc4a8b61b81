package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"whichmodel/internal/models"
)

// BatchCall is one recorded GenerateBatchMultiple invocation.
type BatchCall struct {
	PromptIDs []int
	ModelIDs  []string
}

type BackendMock struct {
	GetConfigFunc             func(ctx context.Context) (json.RawMessage, error)
	ListPromptsFunc           func(ctx context.Context) ([]models.Prompt, error)
	ListResponsesFunc         func(ctx context.Context) ([]models.GeneratedResponse, error)
	GenerateBatchFunc         func(ctx context.Context, promptID int, modelIDs []string) ([]models.GenerationResult, error)
	GenerateBatchMultipleFunc func(ctx context.Context, promptIDs []int, modelIDs []string) (json.RawMessage, error)
	DeleteResponseFunc        func(ctx context.Context, promptID int, modelID string) error
	EmbeddingMetadataFunc     func(ctx context.Context) (json.RawMessage, error)
	VisualizeEmbeddingsFunc   func(ctx context.Context, query models.EmbeddingQuery) (json.RawMessage, error)

	mu         sync.Mutex
	batchCalls []BatchCall
}

func (m *BackendMock) GetConfig(ctx context.Context) (json.RawMessage, error) {
	if m.GetConfigFunc != nil {
		return m.GetConfigFunc(ctx)
	}
	return json.RawMessage(`{}`), nil
}

func (m *BackendMock) ListPrompts(ctx context.Context) ([]models.Prompt, error) {
	if m.ListPromptsFunc != nil {
		return m.ListPromptsFunc(ctx)
	}
	return []models.Prompt{}, nil
}

func (m *BackendMock) ListResponses(ctx context.Context) ([]models.GeneratedResponse, error) {
	if m.ListResponsesFunc != nil {
		return m.ListResponsesFunc(ctx)
	}
	return []models.GeneratedResponse{}, nil
}

func (m *BackendMock) GenerateBatch(ctx context.Context, promptID int, modelIDs []string) ([]models.GenerationResult, error) {
	if m.GenerateBatchFunc != nil {
		return m.GenerateBatchFunc(ctx, promptID, modelIDs)
	}
	return []models.GenerationResult{}, nil
}

func (m *BackendMock) GenerateBatchMultiple(ctx context.Context, promptIDs []int, modelIDs []string) (json.RawMessage, error) {
	m.mu.Lock()
	m.batchCalls = append(m.batchCalls, BatchCall{
		PromptIDs: append([]int(nil), promptIDs...),
		ModelIDs:  append([]string(nil), modelIDs...),
	})
	m.mu.Unlock()
	if m.GenerateBatchMultipleFunc != nil {
		return m.GenerateBatchMultipleFunc(ctx, promptIDs, modelIDs)
	}
	return json.RawMessage(`{}`), nil
}

// BatchCalls returns the GenerateBatchMultiple calls seen so far.
func (m *BackendMock) BatchCalls() []BatchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BatchCall(nil), m.batchCalls...)
}

func (m *BackendMock) DeleteResponse(ctx context.Context, promptID int, modelID string) error {
	if m.DeleteResponseFunc != nil {
		return m.DeleteResponseFunc(ctx, promptID, modelID)
	}
	return nil
}

func (m *BackendMock) EmbeddingMetadata(ctx context.Context) (json.RawMessage, error) {
	if m.EmbeddingMetadataFunc != nil {
		return m.EmbeddingMetadataFunc(ctx)
	}
	return json.RawMessage(`{}`), nil
}

func (m *BackendMock) VisualizeEmbeddings(ctx context.Context, query models.EmbeddingQuery) (json.RawMessage, error) {
	if m.VisualizeEmbeddingsFunc != nil {
		return m.VisualizeEmbeddingsFunc(ctx, query)
	}
	return json.RawMessage(`{}`), nil
}
