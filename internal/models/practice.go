package models

// PracticeCard is the flashcard currently shown in practice mode.
// Model is only filled in once the card has been revealed.
type PracticeCard struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Revealed bool   `json:"revealed"`
	Guess    string `json:"guess,omitempty"`
	Model    string `json:"model,omitempty"`
	Correct  bool   `json:"correct"`
}

type PracticeScore struct {
	Correct  int `json:"correct"`
	Total    int `json:"total"`
	Accuracy int `json:"accuracy"`
}
