package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"whichmodel/internal/events"
	"whichmodel/internal/models"
	"whichmodel/internal/repositories"
)

const DefaultChunkSize = 5

var ErrInvalidChunkSize = errors.New("chunk size must be a positive integer")

var chunkSizeChoices = []int{3, 5, 10}

// BatchBackend submits one chunk of prompts against a set of models.
type BatchBackend interface {
	GenerateBatchMultiple(ctx context.Context, promptIDs []int, modelIDs []string) (json.RawMessage, error)
}

// BatchCatalog is the response collection the runner reads and refreshes.
type BatchCatalog interface {
	RefreshResponses(ctx context.Context) error
	HasResponse(promptID int, model string) bool
	PromptsByCategory(category string) []models.Prompt
}

// BatchRunnerService tracks a batch generation run over a prompt x model grid.
// Every mutation persists the new state and emits events.BatchState.
type BatchRunnerService struct {
	backend BatchBackend
	catalog BatchCatalog
	store   batchStateStore
	log     *zap.Logger
	ctx     context.Context

	mu              sync.Mutex
	phase           models.BatchPhase
	selectedPrompts []int
	selectedModels  []string
	chunkSize       int
	jobs            []models.BatchJob
	runID           string
	loopRunID       string
	cancel          context.CancelFunc
}

// NewBatchRunnerService restores any state persisted in repo. defaultChunkSize
// applies when no chunk size was persisted.
func NewBatchRunnerService(
	backend BatchBackend,
	catalog BatchCatalog,
	repo repositories.SessionStateRepository,
	defaultChunkSize int,
	log *zap.Logger,
) *BatchRunnerService {
	if log == nil {
		log = zap.NewNop()
	}
	if defaultChunkSize <= 0 {
		defaultChunkSize = DefaultChunkSize
	}
	s := &BatchRunnerService{
		backend:   backend,
		catalog:   catalog,
		store:     batchStateStore{repo: repo},
		log:       log,
		ctx:       context.Background(),
		phase:     models.PhaseSelection,
		chunkSize: defaultChunkSize,
	}
	s.restore()
	return s
}

func (s *BatchRunnerService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *BatchRunnerService) restore() {
	st, err := s.store.load(s.ctx)
	if err != nil {
		s.log.Warn("restore batch state", zap.Error(err))
	}
	if st.Phase == models.PhaseExecution || st.Phase == models.PhaseSelection {
		s.phase = st.Phase
	}
	s.selectedPrompts = lo.Uniq(st.SelectedPrompts)
	s.selectedModels = lo.Uniq(st.SelectedModels)
	if st.ChunkSize > 0 {
		s.chunkSize = st.ChunkSize
	}
	s.jobs = st.Jobs
	if len(s.jobs) > 0 {
		s.runID = uuid.NewString()
	}
}

func (s *BatchRunnerService) TogglePrompt(promptID int) models.BatchSnapshot {
	s.mu.Lock()
	s.selectedPrompts = toggle(s.selectedPrompts, promptID)
	s.persistLocked()
	s.mu.Unlock()
	return s.notify()
}

func (s *BatchRunnerService) ToggleModel(modelID string) models.BatchSnapshot {
	s.mu.Lock()
	s.selectedModels = toggle(s.selectedModels, modelID)
	s.persistLocked()
	s.mu.Unlock()
	return s.notify()
}

// ToggleCategory deselects the category's prompts when all of them are
// selected, otherwise selects the rest.
func (s *BatchRunnerService) ToggleCategory(category string) models.BatchSnapshot {
	ids := lo.Map(s.catalog.PromptsByCategory(category), func(p models.Prompt, _ int) int { return p.ID })

	s.mu.Lock()
	if lo.Every(s.selectedPrompts, ids) {
		s.selectedPrompts = lo.Without(s.selectedPrompts, ids...)
	} else {
		for _, id := range ids {
			if !slices.Contains(s.selectedPrompts, id) {
				s.selectedPrompts = append(slices.Clip(s.selectedPrompts), id)
			}
		}
	}
	s.persistLocked()
	s.mu.Unlock()
	return s.notify()
}

// TogglePair handles a grid cell click. A cell whose prompt and model are
// both selected loses its prompt; otherwise whatever is missing is selected.
func (s *BatchRunnerService) TogglePair(promptID int, modelID string) models.BatchSnapshot {
	s.mu.Lock()
	promptSelected := slices.Contains(s.selectedPrompts, promptID)
	modelSelected := slices.Contains(s.selectedModels, modelID)
	switch {
	case promptSelected && modelSelected:
		s.selectedPrompts = toggle(s.selectedPrompts, promptID)
	default:
		if !promptSelected {
			s.selectedPrompts = toggle(s.selectedPrompts, promptID)
		}
		if !modelSelected {
			s.selectedModels = toggle(s.selectedModels, modelID)
		}
	}
	s.persistLocked()
	s.mu.Unlock()
	return s.notify()
}

func (s *BatchRunnerService) SetChunkSize(size int) (models.BatchSnapshot, error) {
	if size <= 0 {
		return s.Snapshot(), fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	s.mu.Lock()
	s.chunkSize = size
	s.persistLocked()
	s.mu.Unlock()
	return s.notify(), nil
}

func (s *BatchRunnerService) ChunkSizeChoices() []int {
	return slices.Clone(chunkSizeChoices)
}

// StartRun queues selectedPrompts x selectedModels under a new run id and
// switches to the execution phase. It reports false when either selection is empty.
func (s *BatchRunnerService) StartRun() bool {
	s.mu.Lock()
	if len(s.selectedPrompts) == 0 || len(s.selectedModels) == 0 {
		s.mu.Unlock()
		return false
	}
	s.cancelLoopLocked()
	jobs := make([]models.BatchJob, 0, len(s.selectedPrompts)*len(s.selectedModels))
	for _, promptID := range s.selectedPrompts {
		for _, modelID := range s.selectedModels {
			jobs = append(jobs, models.BatchJob{PromptID: promptID, Model: modelID, Status: models.JobQueued})
		}
	}
	s.jobs = jobs
	s.phase = models.PhaseExecution
	s.runID = uuid.NewString()
	runID := s.runID
	s.persistLocked()
	s.mu.Unlock()

	s.log.Info("batch run started", zap.String("runId", runID), zap.Int("jobs", len(jobs)))
	s.notify()
	return true
}

// RunChunks submits the current run chunk by chunk, slicing over prompt ids.
// A chunk failure marks that chunk's jobs failed and the loop moves on. The
// loop stops early when the run is replaced or reset.
func (s *BatchRunnerService) RunChunks(ctx context.Context) {
	s.mu.Lock()
	runID := s.runID
	if runID == "" || s.phase != models.PhaseExecution || s.loopRunID == runID {
		s.mu.Unlock()
		return
	}
	promptIDs := lo.Uniq(lo.Map(s.jobs, func(j models.BatchJob, _ int) int { return j.PromptID }))
	modelIDs := lo.Uniq(lo.Map(s.jobs, func(j models.BatchJob, _ int) string { return j.Model }))
	chunkSize := s.chunkSize
	s.cancelLoopLocked()
	runCtx, cancel := context.WithCancel(events.WithRun(ctx, runID))
	s.cancel = cancel
	s.loopRunID = runID
	s.mu.Unlock()

	defer s.finishLoop(runID, cancel)
	s.notify()

	log := s.log.With(zap.String("runId", runID))
	chunks := lo.Chunk(promptIDs, chunkSize)
	failed := 0
	for i, chunk := range chunks {
		started, current := s.transition(runID, chunk, models.JobQueued, models.JobRunning, "")
		if !current {
			log.Debug("run replaced, stopping chunk loop", zap.Int("chunk", i))
			return
		}
		if started == 0 {
			continue
		}

		log.Debug("submitting chunk", zap.Int("chunk", i), zap.Ints("promptIds", chunk), zap.Int("models", len(modelIDs)))
		_, err := s.backend.GenerateBatchMultiple(runCtx, chunk, modelIDs)
		if err != nil {
			failed++
			_, current = s.transition(runID, chunk, models.JobRunning, models.JobFailed, err.Error())
			if current {
				log.Warn("chunk failed", zap.Int("chunk", i), zap.Error(err))
				events.EmitNotice(runCtx, events.NewError(fmt.Sprintf("Chunk %d/%d failed: %s", i+1, len(chunks), err.Error())))
			}
		} else {
			_, current = s.transition(runID, chunk, models.JobRunning, models.JobCompleted, "")
		}

		if rerr := s.catalog.RefreshResponses(runCtx); rerr != nil {
			log.Warn("refresh responses after chunk", zap.Error(rerr))
		}
		if !current {
			log.Debug("discarded result of replaced run", zap.Int("chunk", i))
			return
		}
	}

	progress := s.Progress()
	log.Info("batch run finished", zap.Int("completed", progress.Completed), zap.Int("total", progress.Total), zap.Int("failedChunks", failed))
	if failed == 0 {
		events.EmitNotice(runCtx, events.NewSuccess(fmt.Sprintf("Batch finished: %d jobs", progress.Total)))
	} else {
		events.EmitNotice(runCtx, events.NewWarn(fmt.Sprintf("Batch finished with %d failed chunk(s)", failed)))
	}
}

// RunSelected starts a run over the current selection and processes it in the
// background, emitting events.BatchDone when the loop ends. It reports false
// when a loop is already active or the selection is empty.
func (s *BatchRunnerService) RunSelected() bool {
	if s.IsRunning() {
		return false
	}
	if !s.StartRun() {
		return false
	}
	ctx := s.ctx
	go func() {
		s.RunChunks(ctx)
		events.Emit(ctx, events.BatchDone, s.Progress())
	}()
	return true
}

// transition moves the chunk's jobs in status from to status to. It reports
// how many jobs moved and whether runID is still the active run; a stale run
// changes nothing.
func (s *BatchRunnerService) transition(runID string, chunk []int, from, to models.JobStatus, errText string) (int, bool) {
	s.mu.Lock()
	if s.runID != runID {
		s.mu.Unlock()
		return 0, false
	}
	moved := 0
	next := make([]models.BatchJob, len(s.jobs))
	for i, job := range s.jobs {
		if job.Status == from && slices.Contains(chunk, job.PromptID) {
			job.Status = to
			job.Error = errText
			moved++
		}
		next[i] = job
	}
	if moved == 0 {
		s.mu.Unlock()
		return 0, true
	}
	s.jobs = next
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return moved, true
}

func (s *BatchRunnerService) finishLoop(runID string, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	if s.loopRunID == runID {
		s.loopRunID = ""
		s.cancel = nil
	}
	s.mu.Unlock()
	s.notify()
}

// Stop cancels an in-flight chunk loop and leaves the state as it is.
func (s *BatchRunnerService) Stop() {
	s.mu.Lock()
	s.cancelLoopLocked()
	s.mu.Unlock()
}

func (s *BatchRunnerService) cancelLoopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loopRunID = ""
}

// JobStatus returns a copy of the pair's job in the active run, or nil.
func (s *BatchRunnerService) JobStatus(promptID int, modelID string) *models.BatchJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := lo.Find(s.jobs, func(j models.BatchJob) bool { return j.PromptID == promptID && j.Model == modelID })
	if !ok {
		return nil
	}
	return &job
}

// CellState is what the grid shows for a pair: the job status when a job
// exists, then selection, then whether a response is already stored.
func (s *BatchRunnerService) CellState(promptID int, modelID string) models.CellState {
	if job := s.JobStatus(promptID, modelID); job != nil {
		return models.CellState(job.Status)
	}
	s.mu.Lock()
	selected := s.phase == models.PhaseSelection &&
		slices.Contains(s.selectedPrompts, promptID) &&
		slices.Contains(s.selectedModels, modelID)
	s.mu.Unlock()
	if selected {
		return models.CellSelected
	}
	if s.catalog.HasResponse(promptID, modelID) {
		return models.CellExists
	}
	return models.CellEmpty
}

// Reset drops the run and both selections and returns to the selection phase.
// The chunk size is kept. An in-flight chunk is cancelled and its result ignored.
func (s *BatchRunnerService) Reset() models.BatchSnapshot {
	s.mu.Lock()
	s.cancelLoopLocked()
	s.jobs = nil
	s.selectedPrompts = nil
	s.selectedModels = nil
	s.phase = models.PhaseSelection
	s.runID = ""
	if err := s.store.clearRun(s.ctx); err != nil {
		s.log.Error("clear batch state", zap.Error(err))
	}
	s.mu.Unlock()

	s.log.Info("batch runner reset")
	return s.notify()
}

func (s *BatchRunnerService) Progress() models.BatchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progressOf(s.jobs)
}

func (s *BatchRunnerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopRunID != "" && s.loopRunID == s.runID
}

func (s *BatchRunnerService) Snapshot() models.BatchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *BatchRunnerService) snapshotLocked() models.BatchSnapshot {
	return models.BatchSnapshot{
		RunID:           s.runID,
		Phase:           s.phase,
		SelectedPrompts: append([]int{}, s.selectedPrompts...),
		SelectedModels:  append([]string{}, s.selectedModels...),
		ChunkSize:       s.chunkSize,
		Jobs:            append([]models.BatchJob{}, s.jobs...),
		Progress:        progressOf(s.jobs),
		Running:         s.loopRunID != "" && s.loopRunID == s.runID,
	}
}

func (s *BatchRunnerService) persistLocked() {
	err := s.store.save(s.ctx, batchState{
		Phase:           s.phase,
		SelectedPrompts: s.selectedPrompts,
		SelectedModels:  s.selectedModels,
		ChunkSize:       s.chunkSize,
		Jobs:            s.jobs,
	})
	if err != nil {
		s.log.Error("persist batch state", zap.Error(err))
	}
}

func (s *BatchRunnerService) notify() models.BatchSnapshot {
	snap := s.Snapshot()
	events.Emit(s.ctx, events.BatchState, snap)
	return snap
}

func progressOf(jobs []models.BatchJob) models.BatchProgress {
	total := len(jobs)
	done := lo.CountBy(jobs, func(j models.BatchJob) bool { return j.Status.Terminal() })
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(done) / float64(total)))
	}
	return models.BatchProgress{Completed: done, Total: total, Percentage: pct}
}

// toggle flips membership of v, keeping insertion order.
func toggle[T comparable](set []T, v T) []T {
	if slices.Contains(set, v) {
		return lo.Without(set, v)
	}
	return append(slices.Clip(set), v)
}
