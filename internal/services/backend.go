package services

import (
	"context"
	"encoding/json"

	"whichmodel/internal/models"
)

// Backend is the slice of the backend HTTP API used by the services.
// *api.Client satisfies it.
type Backend interface {
	GetConfig(ctx context.Context) (json.RawMessage, error)
	ListPrompts(ctx context.Context) ([]models.Prompt, error)
	ListResponses(ctx context.Context) ([]models.GeneratedResponse, error)
	GenerateBatch(ctx context.Context, promptID int, modelIDs []string) ([]models.GenerationResult, error)
	GenerateBatchMultiple(ctx context.Context, promptIDs []int, modelIDs []string) (json.RawMessage, error)
	DeleteResponse(ctx context.Context, promptID int, modelID string) error
	EmbeddingMetadata(ctx context.Context) (json.RawMessage, error)
	VisualizeEmbeddings(ctx context.Context, query models.EmbeddingQuery) (json.RawMessage, error)
}
