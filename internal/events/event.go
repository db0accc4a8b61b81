package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	BatchState       = "batch:state"
	BatchNotice      = "batch:notice"
	BatchDone        = "batch:done"
	ResponsesUpdated = "responses:updated"
	ModelsUpdated    = "models:updated"
)

// Notice is a human-readable message shown in the UI event log.
type Notice struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"runId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type contextKey string

const runContextKey contextKey = "whichmodel/events/run"

// WithRun returns a derived context annotated with the given run id
// so notices emitted during a run are scoped to it.
func WithRun(ctx context.Context, runID string) context.Context {
	if strings.TrimSpace(runID) == "" {
		return ctx
	}
	return context.WithValue(ctx, runContextKey, runID)
}

// RunFromContext extracts the run id associated with ctx.
func RunFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runContextKey).(string); ok {
		return v
	}
	return ""
}

func CreateNotice(eventType EventType, message string) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewInfo creates an info Notice.
func NewInfo(message string) Notice {
	return CreateNotice(EventInfo, message)
}

// NewWarn creates a warn Notice.
func NewWarn(message string) Notice {
	return CreateNotice(EventWarn, message)
}

// NewError creates an error Notice.
func NewError(message string) Notice {
	return CreateNotice(EventError, message)
}

// NewSuccess creates a success Notice.
func NewSuccess(message string) Notice {
	return CreateNotice(EventSuccess, message)
}
