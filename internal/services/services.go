package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"whichmodel/internal/repositories"
)

// Services aggregates the services bound to the UI.
type Services struct {
	Catalog     ResponseCatalogService
	Models      ModelConfigService
	AppSettings AppSettingsService
	Batch       *BatchRunnerService
	Embeddings  EmbeddingService
	Practice    PracticeService
	Keyring     *KeyringService
}

// NewServices constructs the service container using repositories backed by db.
// Session state left over from a previous process is discarded.
func NewServices(db *gorm.DB, backend Backend, keyring *KeyringService, defaultChunkSize int, log *zap.Logger) (*Services, error) {
	if log == nil {
		log = zap.NewNop()
	}
	sessionRepo := repositories.NewSessionStateRepository(db)
	if err := sessionRepo.Clear(context.Background()); err != nil {
		return nil, fmt.Errorf("clear session state: %w", err)
	}

	appSettings := NewAppSettingsService(repositories.NewAppSettingsRepository(db))
	catalog := NewResponseCatalogService(backend, log.Named("catalog"))

	return &Services{
		Catalog:     catalog,
		Models:      NewModelConfigService(repositories.NewModelSettingRepository(db), log.Named("models")),
		AppSettings: appSettings,
		Batch:       NewBatchRunnerService(backend, catalog, sessionRepo, appSettings.ChunkSizeOr(defaultChunkSize), log.Named("batch")),
		Embeddings:  NewEmbeddingService(backend, log.Named("embeddings")),
		Practice:    NewPracticeService(catalog),
		Keyring:     keyring,
	}, nil
}

// Startup hands the Wails context to every service.
func (s *Services) Startup(ctx context.Context) error {
	s.Catalog.Startup(ctx)
	s.AppSettings.Startup(ctx)
	s.Batch.Startup(ctx)
	s.Embeddings.Startup(ctx)
	return s.Models.Startup(ctx)
}
