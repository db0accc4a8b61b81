package models

import "strings"

// GeneratedResponse is one model answer to a prompt as stored by the backend.
// (PromptID, Model) identifies it for deletion.
type GeneratedResponse struct {
	PromptID *int   `json:"prompt_id,omitempty"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Matches reports whether the response belongs to the given prompt and model.
func (r GeneratedResponse) Matches(promptID int, model string) bool {
	return r.PromptID != nil && *r.PromptID == promptID && r.Model == model
}

// GenerationResult is one entry of the generate-batch reply.
type GenerationResult struct {
	Model    string            `json:"model"`
	Cached   bool              `json:"cached"`
	Response GeneratedResponse `json:"response"`
}

// ModelDisplayName returns the part of a "provider/name" identifier after the slash.
func ModelDisplayName(modelID string) string {
	if _, name, ok := strings.Cut(modelID, "/"); ok {
		return name
	}
	return modelID
}

// ModelProvider returns the part of a "provider/name" identifier before the slash.
func ModelProvider(modelID string) string {
	provider, _, _ := strings.Cut(modelID, "/")
	return provider
}
