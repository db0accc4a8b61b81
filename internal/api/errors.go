package api

import "fmt"

// Error is returned for any failed backend call. Message is meant for users;
// Err holds the transport cause when no HTTP response was received.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail describes the failure for logs.
func (e *Error) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

// Operation names, also used to pick the fallback message.
const (
	OpGetConfig             = "get config"
	OpListPrompts           = "list prompts"
	OpListResponses         = "list responses"
	OpGenerateBatch         = "generate batch"
	OpGenerateBatchMultiple = "generate batch multiple"
	OpDeleteResponse        = "delete response"
	OpEmbeddingMetadata     = "embedding metadata"
	OpVisualizeEmbeddings   = "visualize embeddings"
)

var fallbackMessages = map[string]string{
	OpGetConfig:             "Failed to load config",
	OpListPrompts:           "Failed to load prompts",
	OpListResponses:         "Failed to load responses",
	OpGenerateBatch:         "Failed to generate responses",
	OpGenerateBatchMultiple: "Failed to generate batch responses",
	OpDeleteResponse:        "Failed to delete response",
	OpEmbeddingMetadata:     "Failed to load embedding metadata",
	OpVisualizeEmbeddings:   "Failed to generate visualization",
}
