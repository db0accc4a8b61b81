package unit_tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whichmodel/internal/models"
	"whichmodel/internal/services"
	"whichmodel/internal/tests/mocks"
)

func TestAppSettingsService_Get_Success(t *testing.T) {
	expectedSettings := &models.AppSettings{
		ID:      1,
		Version: 1,
		Theme:   "dark",
		Locale:  "fr",
	}

	mockRepo := &mocks.AppSettingsRepositoryMock{
		GetFunc: func(ctx context.Context) (*models.AppSettings, error) {
			return expectedSettings, nil
		},
	}
	service := services.NewAppSettingsService(mockRepo)
	service.Startup(context.Background())

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, expectedSettings.ID, settings.ID)
	assert.Equal(t, expectedSettings.Theme, settings.Theme)
	assert.Equal(t, expectedSettings.Locale, settings.Locale)
}

func TestAppSettingsService_Get_RepositoryError(t *testing.T) {
	mockRepo := &mocks.AppSettingsRepositoryMock{
		GetFunc: func(ctx context.Context) (*models.AppSettings, error) {
			return nil, errors.New("database error")
		},
	}
	service := services.NewAppSettingsService(mockRepo)

	_, err := service.Get()
	assert.EqualError(t, err, "database error")
}

func TestAppSettingsService_Update_Success(t *testing.T) {
	mockRepo := &mocks.AppSettingsRepositoryMock{
		UpdateFunc: func(ctx context.Context, settings *models.AppSettings) error {
			assert.Equal(t, uint(1), settings.ID)
			assert.Equal(t, "dark", settings.Theme)
			assert.Equal(t, "fr", settings.Locale)
			return nil
		},
	}
	service := services.NewAppSettingsService(mockRepo)

	updated, err := service.Update("dark", "fr")
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Theme)
	assert.Equal(t, "fr", updated.Locale)
	assert.NotEmpty(t, updated.UpdatedAt)
}

func TestAppSettingsService_Update_Validation(t *testing.T) {
	service := services.NewAppSettingsService(&mocks.AppSettingsRepositoryMock{})

	_, err := service.Update("", "en")
	assert.EqualError(t, err, "theme is required")

	_, err = service.Update("dark", "")
	assert.EqualError(t, err, "locale is required")

	_, err = service.Update("invalid", "en")
	assert.EqualError(t, err, "theme must be 'light', 'dark', or 'system'")
}

func TestAppSettingsService_Update_UpdateError(t *testing.T) {
	mockRepo := &mocks.AppSettingsRepositoryMock{
		UpdateFunc: func(ctx context.Context, settings *models.AppSettings) error {
			return errors.New("update error")
		},
	}
	service := services.NewAppSettingsService(mockRepo)

	settings, err := service.Update("light", "en")
	assert.Nil(t, settings)
	assert.EqualError(t, err, "update error")
}

func TestAppSettingsService_SetDefaultChunkSize(t *testing.T) {
	var saved *models.AppSettings
	mockRepo := &mocks.AppSettingsRepositoryMock{
		UpdateFunc: func(ctx context.Context, settings *models.AppSettings) error {
			saved = settings
			return nil
		},
	}
	service := services.NewAppSettingsService(mockRepo)

	updated, err := service.SetDefaultChunkSize(10)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.DefaultChunkSize)
	require.NotNil(t, saved)
	assert.Equal(t, 10, saved.DefaultChunkSize)

	_, err = service.SetDefaultChunkSize(-1)
	assert.ErrorIs(t, err, services.ErrInvalidChunkSize)
}

func TestAppSettingsService_ChunkSizeOr(t *testing.T) {
	size := 0
	mockRepo := &mocks.AppSettingsRepositoryMock{
		GetFunc: func(ctx context.Context) (*models.AppSettings, error) {
			return &models.AppSettings{ID: 1, DefaultChunkSize: size}, nil
		},
	}
	service := services.NewAppSettingsService(mockRepo)

	assert.Equal(t, 5, service.ChunkSizeOr(5))

	size = 3
	assert.Equal(t, 3, service.ChunkSizeOr(5))
}

func TestAppSettingsService_ChunkSizeOr_RepositoryError(t *testing.T) {
	mockRepo := &mocks.AppSettingsRepositoryMock{
		GetFunc: func(ctx context.Context) (*models.AppSettings, error) {
			return nil, errors.New("boom")
		},
	}
	service := services.NewAppSettingsService(mockRepo)

	assert.Equal(t, 5, service.ChunkSizeOr(5))
}
