package models

// EmbeddingQuery filters the 2-D projection. Nil slices mean "all".
type EmbeddingQuery struct {
	Models         []string `json:"models"`
	Categories     []string `json:"categories"`
	CenterByPrompt bool     `json:"center_by_prompt"`
}
