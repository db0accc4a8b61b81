package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"whichmodel/internal/database"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func sessionRepos(t *testing.T) map[string]SessionStateRepository {
	return map[string]SessionStateRepository{
		"gorm":   NewSessionStateRepository(openDB(t)),
		"memory": NewMemorySessionStateRepository(),
	}
}

func TestSessionStateRepository_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, repo := range sessionRepos(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := repo.Get(ctx, "batchRunnerPhase")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, repo.Set(ctx, "batchRunnerPhase", "selection"))
			require.NoError(t, repo.Set(ctx, "batchRunnerPhase", "execution"))

			v, ok, err := repo.Get(ctx, "batchRunnerPhase")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "execution", v)
		})
	}
}

func TestSessionStateRepository_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	for name, repo := range sessionRepos(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.Set(ctx, "a", "1"))
			require.NoError(t, repo.Set(ctx, "b", "2"))
			require.NoError(t, repo.Set(ctx, "c", "3"))

			require.NoError(t, repo.Delete(ctx, "a", "b", "missing"))
			_, ok, _ := repo.Get(ctx, "a")
			assert.False(t, ok)
			v, ok, _ := repo.Get(ctx, "c")
			assert.True(t, ok)
			assert.Equal(t, "3", v)

			require.NoError(t, repo.Delete(ctx))
			require.NoError(t, repo.Clear(ctx))
			_, ok, _ = repo.Get(ctx, "c")
			assert.False(t, ok)
		})
	}
}

func TestSessionStateRepository_RejectsEmptyKey(t *testing.T) {
	ctx := context.Background()
	for name, repo := range sessionRepos(t) {
		t.Run(name, func(t *testing.T) {
			err := repo.Set(ctx, "  ", "x")
			assert.EqualError(t, err, "session key is required")
		})
	}
}

func TestAppSettingsRepository_DefaultsThenSave(t *testing.T) {
	ctx := context.Background()
	repo := NewAppSettingsRepository(openDB(t))

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "system", settings.Theme)
	assert.Equal(t, "en", settings.Locale)
	assert.Zero(t, settings.DefaultChunkSize)

	settings.Theme = "dark"
	settings.DefaultChunkSize = 10
	settings.ID = 42
	require.NoError(t, repo.Update(ctx, settings))
	assert.Equal(t, uint(1), settings.ID)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", stored.Theme)
	assert.Equal(t, 10, stored.DefaultChunkSize)
}

func TestModelSettingRepository_UpsertAndProviderToggle(t *testing.T) {
	ctx := context.Background()
	repo := NewModelSettingRepository(openDB(t))

	_, err := repo.Upsert(ctx, "openai/gpt-5", "openai", true)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "anthropic/claude-sonnet-4.5", "anthropic", true)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "openai/gpt-5", "openai", false)
	require.NoError(t, err)

	got, err := repo.GetByKey(ctx, "openai/gpt-5")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Enabled)

	missing, err := repo.GetByKey(ctx, "nobody/none")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.SetProviderEnabled(ctx, "anthropic", false))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "anthropic/claude-sonnet-4.5", list[0].ModelKey)
	assert.False(t, list[0].Enabled)

	_, err = repo.Upsert(ctx, "", "openai", true)
	assert.EqualError(t, err, "model key is required")
	_, err = repo.Upsert(ctx, "x/y", "", true)
	assert.EqualError(t, err, "provider is required")
}
