package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"whichmodel/internal/models"
)

// SessionStateRepository stores UI session state as string values under fixed keys.
type SessionStateRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

type sessionStateRepository struct {
	db *gorm.DB
}

func NewSessionStateRepository(db *gorm.DB) SessionStateRepository {
	return &sessionStateRepository{db: db}
}

func (r *sessionStateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.SessionEntry
	if err := r.db.WithContext(ctx).Where("state_key = ?", key).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting session key %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (r *sessionStateRepository) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("session key is required")
	}
	entry := models.SessionEntry{Key: key, Value: value}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error; err != nil {
		return fmt.Errorf("setting session key %s: %w", key, err)
	}
	return nil
}

func (r *sessionStateRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("state_key IN ?", keys).Delete(&models.SessionEntry{}).Error; err != nil {
		return fmt.Errorf("deleting session keys: %w", err)
	}
	return nil
}

func (r *sessionStateRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SessionEntry{}).Error; err != nil {
		return fmt.Errorf("clearing session state: %w", err)
	}
	return nil
}

// memorySessionStateRepository keeps session state in a map. Used by tests and
// by callers that do not want a database.
type memorySessionStateRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySessionStateRepository() SessionStateRepository {
	return &memorySessionStateRepository{values: make(map[string]string)}
}

func (r *memorySessionStateRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *memorySessionStateRepository) Set(_ context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("session key is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *memorySessionStateRepository) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

func (r *memorySessionStateRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = make(map[string]string)
	return nil
}
