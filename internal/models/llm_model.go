package models

// LLMModel represents a single language model option exposed to the UI.
type LLMModel struct {
	ID           string `json:"id"` // "provider/name", the identifier the backend expects
	DisplayName  string `json:"displayName"`
	ProviderID   string `json:"providerId"`
	ProviderName string `json:"providerName"`
	Enabled      bool   `json:"enabled"`
}

// LLMModelGroup groups models by their provider for presentation.
type LLMModelGroup struct {
	ProviderID   string     `json:"providerId"`
	ProviderName string     `json:"providerName"`
	Models       []LLMModel `json:"models"`
}
