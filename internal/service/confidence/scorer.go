package confidence

import (
	"strings"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/textmatch"
)

const (
	ReasonHedging       = "hedging_language"
	ReasonMissingData   = "missing_data"
	ReasonComplex       = "complex_request"
	ReasonTooShort      = "too_short"
	ReasonLowConfidence = "low_confidence"
)

// Penalties are kept in hundredths so thresholds compare exactly.
const (
	full             = 100
	hedgePerMarker   = 20
	hedgeCap         = 40
	missingPenalty   = 30
	complexPenalty   = 20
	brevityPenalty   = 20
	minResponseWords = 5

	DefaultThreshold = 0.6
)

// Lexicon holds the phrase lists the scorer matches against. Treat it as read-only.
type Lexicon struct {
	Hedges      []string
	MissingData []string
	Complex     []string
}

func DefaultLexicon() Lexicon {
	return Lexicon{
		Hedges: []string{
			"maybe", "perhaps", "not sure", "probably", "i think", "might", "possibly",
			"возможно", "наверное", "кажется", "не уверен", "может быть", "вероятно",
			"думаю", "предполагаю", "не знаю точно",
		},
		MissingData: []string{
			"not found", "no information", "unavailable", "not available", "cannot find",
			"can't find", "no data",
			"не найден", "нет информации", "недоступн", "не могу найти", "нет данных",
		},
		Complex: []string{
			"banquet", "corporate", "wedding", "birthday", "special menu", "allergy",
			"allergic", "diet", "complaint", "problem",
			"банкет", "корпоратив", "свадьб", "день рождения", "особое меню", "аллерги",
			"диет", "жалоб", "проблем",
		},
	}
}

type Scorer struct {
	lexicon   Lexicon
	threshold int
}

// NewScorer builds a scorer that escalates at or below threshold.
func NewScorer(lexicon Lexicon, threshold float64) *Scorer {
	return &Scorer{lexicon: lexicon, threshold: int(threshold*full + 0.5)}
}

// Score rates how safe response is to show for userText. It is a pure function of its inputs.
func (s *Scorer) Score(userText, response string) domain.ConfidenceAnalysis {
	user := textmatch.Fold(userText)
	reply := textmatch.Fold(response)

	score := full
	escalate := false
	var reasons []string

	if n := textmatch.CountStems(reply, s.lexicon.Hedges); n > 0 {
		score -= min(hedgeCap, n*hedgePerMarker)
		reasons = append(reasons, ReasonHedging)
	}
	if textmatch.AnyStem(reply, s.lexicon.MissingData) {
		score -= missingPenalty
		reasons = append(reasons, ReasonMissingData)
	}
	if textmatch.AnyStem(user, s.lexicon.Complex) {
		score -= complexPenalty
		escalate = true
		reasons = append(reasons, ReasonComplex)
	}
	if len(strings.Fields(reply)) < minResponseWords {
		score -= brevityPenalty
		reasons = append(reasons, ReasonTooShort)
	}

	score = max(score, 0)
	// inclusive: a reply scoring exactly the threshold goes to staff. This
	// trades an occasional needless handoff for never sending a borderline reply.
	if score <= s.threshold {
		escalate = true
		reasons = append(reasons, ReasonLowConfidence)
	}

	return domain.ConfidenceAnalysis{
		Score:    float64(score) / full,
		Escalate: escalate,
		Reasons:  reasons,
	}
}

// HasReason reports whether analysis carries reason.
func HasReason(a domain.ConfidenceAnalysis, reason string) bool {
	for _, r := range a.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
