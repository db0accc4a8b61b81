package models

// Prompt is a question stored by the backend. The desktop core only reads it.
type Prompt struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}
