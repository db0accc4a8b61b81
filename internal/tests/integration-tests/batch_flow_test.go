package integration_tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whichmodel/internal/api"
	"whichmodel/internal/database"
	"whichmodel/internal/models"
	"whichmodel/internal/services"
)

// fakeBackend serves prompts, stores generated responses and fails any chunk containing failPrompt.
type fakeBackend struct {
	mu         sync.Mutex
	prompts    []models.Prompt
	responses  []models.GeneratedResponse
	failPrompt int
	chunks     [][]int
	auth       []string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /prompts", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(f.prompts)
	})
	mux.HandleFunc("GET /responses", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.responses)
	})
	mux.HandleFunc("POST /generate-batch-multiple", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PromptIDs []int    `json:"prompt_ids"`
			Models    []string `json:"models"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.chunks = append(f.chunks, body.PromptIDs)
		for _, id := range body.PromptIDs {
			if id == f.failPrompt {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"detail":"provider unavailable"}`))
				return
			}
		}
		for _, id := range body.PromptIDs {
			for _, m := range body.Models {
				pid := id
				f.responses = append(f.responses, models.GeneratedResponse{PromptID: &pid, Model: m, Response: "ok"})
			}
		}
		_, _ = w.Write([]byte(`{"results":{}}`))
	})
	return mux
}

func TestBatchFlow_EndToEnd(t *testing.T) {
	fake := &fakeBackend{
		prompts: []models.Prompt{
			{ID: 1, Text: "a", Category: "math"},
			{ID: 2, Text: "b", Category: "math"},
			{ID: 3, Text: "c", Category: "bio"},
			{ID: 4, Text: "d", Category: "bio"},
			{ID: 5, Text: "e", Category: "bio"},
		},
		failPrompt: 3,
	}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	db, err := database.Init(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)

	ring := services.NewKeyringServiceWith(keyring.NewArrayKeyring(nil), zap.NewNop())
	require.NoError(t, ring.StoreBackendToken("tok"))

	client := api.NewClient(srv.URL, api.WithTokenSource(ring.TokenSource()))
	svc, err := services.NewServices(db, client, ring, 5, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Startup(ctx))
	require.NoError(t, svc.Catalog.Reload(ctx))

	svc.Batch.ToggleCategory("math")
	svc.Batch.ToggleCategory("bio")
	modelIDs := svc.Models.EnabledModelIDs()[:2]
	for _, m := range modelIDs {
		svc.Batch.ToggleModel(m)
	}
	_, err = svc.Batch.SetChunkSize(2)
	require.NoError(t, err)

	require.True(t, svc.Batch.StartRun())
	svc.Batch.RunChunks(ctx)

	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, fake.chunks)
	assert.Equal(t, []string{"Bearer tok"}, fake.auth)

	failed := svc.Batch.JobStatus(4, modelIDs[1])
	require.NotNil(t, failed)
	assert.Equal(t, "failed", string(failed.Status))
	assert.Equal(t, "provider unavailable", failed.Error)

	done := svc.Batch.JobStatus(5, modelIDs[0])
	require.NotNil(t, done)
	assert.Equal(t, "completed", string(done.Status))

	progress := svc.Batch.Progress()
	assert.Equal(t, 10, progress.Total)
	assert.Equal(t, 10, progress.Completed)
	assert.Equal(t, 100, progress.Percentage)

	// responses for the successful chunks were pulled in by the per-chunk refresh
	assert.Len(t, svc.Catalog.Responses(), 6)
	assert.True(t, svc.Catalog.HasResponse(5, modelIDs[1]))
	assert.False(t, svc.Catalog.HasResponse(3, modelIDs[0]))

	svc.Batch.Reset()
	assert.Empty(t, svc.Batch.Snapshot().Jobs)
	assert.Equal(t, 2, svc.Batch.Snapshot().ChunkSize)
}

func TestBatchFlow_SessionStateClearedOnNewServices(t *testing.T) {
	db, err := database.Init(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	ring := services.NewKeyringServiceWith(keyring.NewArrayKeyring(nil), zap.NewNop())
	client := api.NewClient("http://127.0.0.1:1")

	first, err := services.NewServices(db, client, ring, 5, zap.NewNop())
	require.NoError(t, err)
	first.Batch.TogglePrompt(1)
	_, err = first.Batch.SetChunkSize(10)
	require.NoError(t, err)

	second, err := services.NewServices(db, client, ring, 3, zap.NewNop())
	require.NoError(t, err)
	snap := second.Batch.Snapshot()
	assert.Empty(t, snap.SelectedPrompts)
	assert.Equal(t, 3, snap.ChunkSize)
}

func TestBatchFlow_DefaultChunkSizeFromSettings(t *testing.T) {
	db, err := database.Init(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	ring := services.NewKeyringServiceWith(keyring.NewArrayKeyring(nil), zap.NewNop())
	client := api.NewClient("http://127.0.0.1:1")

	first, err := services.NewServices(db, client, ring, 5, zap.NewNop())
	require.NoError(t, err)
	_, err = first.AppSettings.SetDefaultChunkSize(10)
	require.NoError(t, err)

	second, err := services.NewServices(db, client, ring, 5, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 10, second.Batch.Snapshot().ChunkSize)
}
