package services

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"whichmodel/internal/models"
)

// ResponseSource supplies the responses a practice deck is built from.
type ResponseSource interface {
	Responses() []models.GeneratedResponse
}

// PracticeService runs the "guess the model" flashcard deck.
type PracticeService interface {
	Start() *models.PracticeCard
	Current() *models.PracticeCard
	Reveal(guess string) *models.PracticeCard
	Next() *models.PracticeCard
	Previous() *models.PracticeCard
	Choices() []string
	Score() models.PracticeScore
}

type practiceService struct {
	source  ResponseSource
	shuffle func([]models.GeneratedResponse) []models.GeneratedResponse

	mu       sync.Mutex
	deck     []models.GeneratedResponse
	index    int
	revealed bool
	guess    string
	correct  int
	total    int
}

func NewPracticeService(source ResponseSource) PracticeService {
	return NewPracticeServiceWithShuffle(source, func(in []models.GeneratedResponse) []models.GeneratedResponse {
		return lo.Shuffle(in)
	})
}

// NewPracticeServiceWithShuffle lets callers fix the deck order.
func NewPracticeServiceWithShuffle(source ResponseSource, shuffle func([]models.GeneratedResponse) []models.GeneratedResponse) PracticeService {
	return &practiceService{source: source, shuffle: shuffle}
}

// Start deals a fresh deck from the current responses and resets the score.
// The card is nil when there is nothing to practice on.
func (s *practiceService) Start() *models.PracticeCard {
	deck := s.shuffle(s.source.Responses())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck = deck
	s.index = 0
	s.correct = 0
	s.total = 0
	s.clearRevealLocked()
	return s.cardLocked()
}

func (s *practiceService) Current() *models.PracticeCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardLocked()
}

// Reveal scores guess against the current card. It does nothing when the
// guess is empty or the card is already revealed.
func (s *practiceService) Reveal(guess string) *models.PracticeCard {
	guess = strings.TrimSpace(guess)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deck) == 0 || guess == "" || s.revealed {
		return s.cardLocked()
	}
	s.revealed = true
	s.guess = guess
	s.total++
	if guess == s.deck[s.index].Model {
		s.correct++
	}
	return s.cardLocked()
}

func (s *practiceService) Next() *models.PracticeCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < len(s.deck)-1 {
		s.index++
		s.clearRevealLocked()
	}
	return s.cardLocked()
}

func (s *practiceService) Previous() *models.PracticeCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index > 0 {
		s.index--
		s.clearRevealLocked()
	}
	return s.cardLocked()
}

// Choices lists the distinct models in the deck, sorted.
func (s *practiceService) Choices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	choices := lo.Uniq(lo.Map(s.deck, func(r models.GeneratedResponse, _ int) string { return r.Model }))
	sort.Strings(choices)
	return choices
}

func (s *practiceService) Score() models.PracticeScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	score := models.PracticeScore{Correct: s.correct, Total: s.total}
	if s.total > 0 {
		score.Accuracy = int(math.Round(100 * float64(s.correct) / float64(s.total)))
	}
	return score
}

func (s *practiceService) clearRevealLocked() {
	s.revealed = false
	s.guess = ""
}

func (s *practiceService) cardLocked() *models.PracticeCard {
	if len(s.deck) == 0 {
		return nil
	}
	r := s.deck[s.index]
	card := &models.PracticeCard{
		Index:    s.index,
		Total:    len(s.deck),
		Prompt:   r.Prompt,
		Response: r.Response,
		Revealed: s.revealed,
	}
	if s.revealed {
		card.Guess = s.guess
		card.Model = r.Model
		card.Correct = s.guess == r.Model
	}
	return card
}
