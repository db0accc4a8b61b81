package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"whichmodel/internal/models"
)

// EmbeddingBackend computes embedding metadata and projections.
type EmbeddingBackend interface {
	EmbeddingMetadata(ctx context.Context) (json.RawMessage, error)
	VisualizeEmbeddings(ctx context.Context, query models.EmbeddingQuery) (json.RawMessage, error)
}

// EmbeddingService forwards embedding requests to the backend. Results are opaque to the app.
type EmbeddingService interface {
	Startup(ctx context.Context)
	Metadata() (json.RawMessage, error)
	Visualize(query models.EmbeddingQuery) (json.RawMessage, error)
}

type embeddingService struct {
	backend EmbeddingBackend
	log     *zap.Logger
	ctx     context.Context
}

func NewEmbeddingService(backend EmbeddingBackend, log *zap.Logger) EmbeddingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &embeddingService{backend: backend, log: log, ctx: context.Background()}
}

func (s *embeddingService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *embeddingService) Metadata() (json.RawMessage, error) {
	return s.backend.EmbeddingMetadata(s.ctx)
}

func (s *embeddingService) Visualize(query models.EmbeddingQuery) (json.RawMessage, error) {
	query.Models = cleanFilter(query.Models)
	query.Categories = cleanFilter(query.Categories)
	s.log.Debug("visualize embeddings",
		zap.Strings("models", query.Models),
		zap.Strings("categories", query.Categories),
		zap.Bool("centerByPrompt", query.CenterByPrompt))
	return s.backend.VisualizeEmbeddings(s.ctx, query)
}

// cleanFilter trims and dedupes a filter. An empty result becomes nil, which the backend reads as "all".
func cleanFilter(in []string) []string {
	out := lo.Uniq(lo.Compact(lo.Map(in, func(v string, _ int) string { return strings.TrimSpace(v) })))
	if len(out) == 0 {
		return nil
	}
	return out
}
