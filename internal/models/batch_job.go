package models

// JobStatus is the lifecycle state of a BatchJob.
// queued -> running -> completed | failed
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// BatchJob tracks one (prompt, model) generation inside a run.
type BatchJob struct {
	PromptID int       `json:"promptId"`
	Model    string    `json:"model"`
	Status   JobStatus `json:"status"`
	Error    string    `json:"error,omitempty"`
}

// BatchPhase is the screen the batch runner is on.
type BatchPhase string

const (
	PhaseSelection BatchPhase = "selection"
	PhaseExecution BatchPhase = "execution"
)

// BatchProgress counts terminal jobs. Percentage is 0 when Total is 0.
type BatchProgress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// CellState is what a (prompt, model) grid cell shows.
type CellState string

const (
	CellEmpty     CellState = "empty"
	CellSelected  CellState = "selected"
	CellExists    CellState = "exists"
	CellQueued    CellState = "queued"
	CellRunning   CellState = "running"
	CellCompleted CellState = "completed"
	CellFailed    CellState = "failed"
)

// BatchSnapshot is the full batch runner state handed to the UI.
type BatchSnapshot struct {
	RunID           string        `json:"runId,omitempty"`
	Phase           BatchPhase    `json:"phase"`
	SelectedPrompts []int         `json:"selectedPrompts"`
	SelectedModels  []string      `json:"selectedModels"`
	ChunkSize       int           `json:"chunkSize"`
	Jobs            []BatchJob    `json:"jobs"`
	Progress        BatchProgress `json:"progress"`
	Running         bool          `json:"running"`
}
