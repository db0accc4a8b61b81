package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"whichmodel/internal/models"
	"whichmodel/internal/repositories"
)

// Session keys of the batch runner. Values are JSON.
const (
	KeyBatchPhase           = "batchRunnerPhase"
	KeyBatchSelectedPrompts = "batchRunnerSelectedPrompts"
	KeyBatchSelectedModels  = "batchRunnerSelectedModels"
	KeyBatchSize            = "batchRunnerBatchSize"
	KeyBatchJobStatuses     = "batchRunnerJobStatuses"
)

type batchState struct {
	Phase           models.BatchPhase
	SelectedPrompts []int
	SelectedModels  []string
	ChunkSize       int
	Jobs            []models.BatchJob
}

// batchStateStore is the save/load boundary between the runner and the session repository.
type batchStateStore struct {
	repo repositories.SessionStateRepository
}

func (s batchStateStore) load(ctx context.Context) (batchState, error) {
	var st batchState
	var errs []error
	decode := func(key string, dst any) {
		raw, ok, err := s.repo.Get(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", key, err))
			return
		}
		if !ok || raw == "" {
			return
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			errs = append(errs, fmt.Errorf("decode %s: %w", key, err))
		}
	}
	decode(KeyBatchPhase, &st.Phase)
	decode(KeyBatchSelectedPrompts, &st.SelectedPrompts)
	decode(KeyBatchSelectedModels, &st.SelectedModels)
	decode(KeyBatchSize, &st.ChunkSize)
	decode(KeyBatchJobStatuses, &st.Jobs)
	return st, errors.Join(errs...)
}

func (s batchStateStore) save(ctx context.Context, st batchState) error {
	values := []struct {
		key string
		val any
	}{
		{KeyBatchPhase, st.Phase},
		{KeyBatchSelectedPrompts, nonNilSlice(st.SelectedPrompts)},
		{KeyBatchSelectedModels, nonNilSlice(st.SelectedModels)},
		{KeyBatchSize, st.ChunkSize},
		{KeyBatchJobStatuses, nonNilSlice(st.Jobs)},
	}
	for _, v := range values {
		data, err := json.Marshal(v.val)
		if err != nil {
			return fmt.Errorf("encode %s: %w", v.key, err)
		}
		if err := s.repo.Set(ctx, v.key, string(data)); err != nil {
			return fmt.Errorf("write %s: %w", v.key, err)
		}
	}
	return nil
}

// clearRun drops everything but the chunk size preference.
func (s batchStateStore) clearRun(ctx context.Context) error {
	return s.repo.Delete(ctx, KeyBatchPhase, KeyBatchSelectedPrompts, KeyBatchSelectedModels, KeyBatchJobStatuses)
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
