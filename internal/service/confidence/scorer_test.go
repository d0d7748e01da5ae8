package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(DefaultLexicon(), DefaultThreshold)

	tests := []struct {
		name     string
		user     string
		response string
		score    float64
		escalate bool
		reasons  []string
	}{
		{
			name:     "clean answer",
			user:     "table for 2 tomorrow",
			response: "Your table for two is reserved for tomorrow evening.",
			score:    1.0,
		},
		{
			name:     "hedging at threshold escalates",
			user:     "can I come tonight",
			response: "Maybe, not sure, perhaps you can come",
			score:    0.6,
			escalate: true,
			reasons:  []string{ReasonHedging, ReasonLowConfidence},
		},
		{
			name:     "single hedge",
			user:     "do you have a window table",
			response: "Возможно, у нас есть свободный столик у окна",
			score:    0.8,
			reasons:  []string{ReasonHedging},
		},
		{
			name:     "missing data",
			user:     "what is on the menu",
			response: "Sorry, that information is not available right now.",
			score:    0.7,
			reasons:  []string{ReasonMissingData},
		},
		{
			name:     "complex request always escalates",
			user:     "We are planning a birthday party for ten",
			response: "We would be glad to host your celebration with us.",
			score:    0.8,
			escalate: true,
			reasons:  []string{ReasonComplex},
		},
		{
			name:     "too short",
			user:     "hi",
			response: "Hello there!",
			score:    0.8,
			reasons:  []string{ReasonTooShort},
		},
		{
			name:     "floored at zero",
			user:     "wedding",
			response: "maybe probably not found",
			score:    0,
			escalate: true,
			reasons:  []string{ReasonHedging, ReasonMissingData, ReasonComplex, ReasonTooShort, ReasonLowConfidence},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.user, tt.response)
			assert.InDelta(t, tt.score, got.Score, 1e-9)
			assert.Equal(t, tt.escalate, got.Escalate)
			assert.Equal(t, tt.reasons, got.Reasons)
		})
	}
}

func TestScorer_HedgePenaltyIsCapped(t *testing.T) {
	scorer := NewScorer(DefaultLexicon(), DefaultThreshold)

	got := scorer.Score("table", "maybe perhaps probably possibly we have something for you tonight")

	assert.InDelta(t, 0.6, got.Score, 1e-9)
	assert.True(t, got.Escalate)
}

func TestScorer_IsDeterministic(t *testing.T) {
	scorer := NewScorer(DefaultLexicon(), DefaultThreshold)
	first := scorer.Score("allergy question", "I think we can help with that request.")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score("allergy question", "I think we can help with that request."))
	}
}

func TestScorer_CustomLexiconAndThreshold(t *testing.T) {
	scorer := NewScorer(Lexicon{Hedges: []string{"kinda"}}, 0.9)

	got := scorer.Score("hello", "we kinda have a table for you")

	assert.InDelta(t, 0.8, got.Score, 1e-9)
	assert.True(t, got.Escalate)
	assert.True(t, HasReason(got, ReasonLowConfidence))
	assert.False(t, HasReason(got, ReasonMissingData))
}
