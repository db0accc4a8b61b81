package services

import (
	"context"
	"errors"
	"time"

	"whichmodel/internal/models"
	"whichmodel/internal/repositories"
)

type AppSettingsService interface {
	Get() (*models.AppSettings, error)
	Update(theme, locale string) (*models.AppSettings, error)
	SetDefaultChunkSize(size int) (*models.AppSettings, error)
	ChunkSizeOr(fallback int) int
	Startup(ctx context.Context)
}

type appSettingsService struct {
	appSettings repositories.AppSettingsRepository
	context     context.Context
}

func (s *appSettingsService) Startup(ctx context.Context) {
	s.context = ctx
}

func NewAppSettingsService(appSettings repositories.AppSettingsRepository) AppSettingsService {
	return &appSettingsService{appSettings: appSettings, context: context.Background()}
}

func (s *appSettingsService) Get() (*models.AppSettings, error) {
	return s.appSettings.Get(s.context)
}

func (s *appSettingsService) Update(theme, locale string) (*models.AppSettings, error) {
	if theme == "" {
		return nil, errors.New("theme is required")
	}
	if locale == "" {
		return nil, errors.New("locale is required")
	}

	if theme != "light" && theme != "dark" && theme != "system" {
		return nil, errors.New("theme must be 'light', 'dark', or 'system'")
	}

	current, err := s.appSettings.Get(s.context)
	if err != nil {
		return nil, err
	}

	current.Theme = theme
	current.Locale = locale
	return s.save(current)
}

// SetDefaultChunkSize stores the chunk size new sessions start with. 0 clears the override.
func (s *appSettingsService) SetDefaultChunkSize(size int) (*models.AppSettings, error) {
	if size < 0 {
		return nil, ErrInvalidChunkSize
	}
	current, err := s.appSettings.Get(s.context)
	if err != nil {
		return nil, err
	}
	current.DefaultChunkSize = size
	return s.save(current)
}

// ChunkSizeOr returns the stored default chunk size, or fallback when none is set.
func (s *appSettingsService) ChunkSizeOr(fallback int) int {
	current, err := s.appSettings.Get(s.context)
	if err != nil || current.DefaultChunkSize <= 0 {
		return fallback
	}
	return current.DefaultChunkSize
}

func (s *appSettingsService) save(current *models.AppSettings) (*models.AppSettings, error) {
	current.UpdatedAt = time.Now().Format(time.RFC3339)
	if err := s.appSettings.Update(s.context, current); err != nil {
		return nil, err
	}
	return current, nil
}
