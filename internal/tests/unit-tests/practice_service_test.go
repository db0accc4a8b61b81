package unit_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whichmodel/internal/models"
	"whichmodel/internal/services"
)

type staticResponses []models.GeneratedResponse

func (s staticResponses) Responses() []models.GeneratedResponse {
	return append([]models.GeneratedResponse(nil), s...)
}

func keepOrder(in []models.GeneratedResponse) []models.GeneratedResponse { return in }

var practiceDeck = staticResponses{
	{PromptID: intPtr(1), Prompt: "p1", Model: "openai/gpt-5", Response: "r1"},
	{PromptID: intPtr(2), Prompt: "p2", Model: "google/gemini-2.5-pro", Response: "r2"},
	{PromptID: intPtr(3), Prompt: "p3", Model: "openai/gpt-5", Response: "r3"},
}

func TestPractice_EmptyDeck(t *testing.T) {
	svc := services.NewPracticeServiceWithShuffle(staticResponses{}, keepOrder)

	assert.Nil(t, svc.Start())
	assert.Nil(t, svc.Current())
	assert.Nil(t, svc.Reveal("openai/gpt-5"))
	assert.Nil(t, svc.Next())
	assert.Equal(t, models.PracticeScore{}, svc.Score())
}

func TestPractice_CardHidesModelUntilRevealed(t *testing.T) {
	svc := services.NewPracticeServiceWithShuffle(practiceDeck, keepOrder)

	card := svc.Start()
	require.NotNil(t, card)
	assert.Equal(t, 0, card.Index)
	assert.Equal(t, 3, card.Total)
	assert.Equal(t, "r1", card.Response)
	assert.Empty(t, card.Model)
	assert.False(t, card.Revealed)

	card = svc.Reveal("openai/gpt-5")
	assert.True(t, card.Revealed)
	assert.True(t, card.Correct)
	assert.Equal(t, "openai/gpt-5", card.Model)
	assert.Equal(t, models.PracticeScore{Correct: 1, Total: 1, Accuracy: 100}, svc.Score())
}

func TestPractice_RevealIgnoresEmptyGuessAndRepeats(t *testing.T) {
	svc := services.NewPracticeServiceWithShuffle(practiceDeck, keepOrder)
	svc.Start()

	card := svc.Reveal("  ")
	assert.False(t, card.Revealed)
	assert.Equal(t, models.PracticeScore{}, svc.Score())

	svc.Reveal("google/gemini-2.5-pro")
	card = svc.Reveal("openai/gpt-5")
	assert.Equal(t, "google/gemini-2.5-pro", card.Guess)
	assert.False(t, card.Correct)
	assert.Equal(t, models.PracticeScore{Correct: 0, Total: 1, Accuracy: 0}, svc.Score())
}

func TestPractice_NavigationClearsReveal(t *testing.T) {
	svc := services.NewPracticeServiceWithShuffle(practiceDeck, keepOrder)
	svc.Start()

	svc.Reveal("openai/gpt-5")
	card := svc.Next()
	assert.Equal(t, 1, card.Index)
	assert.False(t, card.Revealed)
	svc.Reveal("openai/gpt-5")

	card = svc.Next()
	assert.Equal(t, 2, card.Index)
	svc.Reveal("openai/gpt-5")

	card = svc.Next()
	assert.Equal(t, 2, card.Index)
	assert.True(t, card.Revealed, "staying on the last card keeps it revealed")

	card = svc.Previous()
	assert.Equal(t, 1, card.Index)
	assert.False(t, card.Revealed)

	svc.Previous()
	card = svc.Previous()
	assert.Equal(t, 0, card.Index)

	// 1 of 3 wrong
	assert.Equal(t, models.PracticeScore{Correct: 2, Total: 3, Accuracy: 67}, svc.Score())
}

func TestPractice_StartResetsScore(t *testing.T) {
	svc := services.NewPracticeServiceWithShuffle(practiceDeck, keepOrder)
	svc.Start()
	svc.Reveal("openai/gpt-5")

	card := svc.Start()
	assert.Equal(t, 0, card.Index)
	assert.Equal(t, models.PracticeScore{}, svc.Score())
}

func TestPractice_ShuffleIsApplied(t *testing.T) {
	reverse := func(in []models.GeneratedResponse) []models.GeneratedResponse {
		out := make([]models.GeneratedResponse, 0, len(in))
		for i := len(in) - 1; i >= 0; i-- {
			out = append(out, in[i])
		}
		return out
	}
	svc := services.NewPracticeServiceWithShuffle(practiceDeck, reverse)

	assert.Equal(t, "r3", svc.Start().Response)
}

func TestPractice_DefaultShuffleKeepsCards(t *testing.T) {
	svc := services.NewPracticeService(practiceDeck)
	svc.Start()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		seen[svc.Current().Response] = true
		svc.Next()
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, []string{"google/gemini-2.5-pro", "openai/gpt-5"}, svc.Choices())
}
