package escalation

import (
	"math/rand"
	"sync"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/confidence"
	"github.com/Domenick1991/tablebot/internal/textmatch"
)

type Tag string

const (
	TagLowConfidence  Tag = "low_confidence"
	TagNoData         Tag = "no_data"
	TagComplexRequest Tag = "complex_request"
	TagError          Tag = "error"
)

// veryLowScore routes to the complex-request handoff instead of the low-confidence one.
const veryLowScore = 0.4

const confusionWindow = 3

// Templates maps a situation tag to its canned alternatives. Treat it as read-only.
type Templates map[Tag][]string

func DefaultTemplates() Templates {
	return Templates{
		TagLowConfidence: {
			"I want to make sure you get accurate information, so I'm passing your question to our manager. They will contact you shortly.",
			"Let me connect you with a staff member who can answer this precisely. Please expect a call soon.",
			"This is a question better handled by our team. A manager will get back to you shortly.",
		},
		TagNoData: {
			"I don't have up-to-date details on that. Our manager will contact you with the exact answer.",
			"Let me check this with the team. A staff member will reach out to you shortly.",
		},
		TagComplexRequest: {
			"Your request needs personal attention, so I'm handing it over to our manager. They will contact you shortly.",
			"For this kind of request our manager will help you directly. Please expect a call soon.",
			"I'm connecting you with a staff member who will take care of every detail of your request.",
		},
		TagError: {
			"Sorry, something went wrong on our side. Please try again in a moment or call us directly.",
			"We hit a technical problem while handling your message. Please try again shortly.",
		},
	}
}

// Markers holds the phrases the detectors look for. Treat it as read-only.
type Markers struct {
	HumanRequest []string
	Confusion    []string
}

func DefaultMarkers() Markers {
	return Markers{
		// whole request phrases only: "manager" or "a human" alone also occur in
		// ordinary booking talk ("I'm the office manager", "human resources")
		HumanRequest: []string{
			"speak to a human", "talk to a human", "speak with a human", "speak to a person",
			"talk to a person", "connect me to a person", "connect me with a person",
			"speak to a manager", "talk to a manager", "talk to your manager", "speak to your manager",
			"speak with a manager", "connect me to a manager", "call the manager", "get me a manager",
			"real person", "live person", "human operator", "don't want a bot", "are you a robot",
			"are you a bot",
			"хочу говорить с человеком", "хочу поговорить с человеком", "позовите человека",
			"живой человек", "живого человека", "живой сотрудник", "соедините с менеджером",
			"соедините с администратором", "позовите менеджера", "позовите администратора",
			"не хочу с ботом", "ты бот", "вы бот", "ты робот", "вы робот",
		},
		Confusion: []string{
			"didn't understand", "did not understand", "don't understand", "do not understand",
			"repeat", "what?", "how?",
			"не понял", "не поняла", "не понимаю", "повтори", "что?", "как?",
		},
	}
}

type Policy struct {
	templates Templates
	markers   Markers

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPolicy(templates Templates, markers Markers, rnd *rand.Rand) *Policy {
	return &Policy{templates: templates, markers: markers, rnd: rnd}
}

// Template picks one alternative for tag. It falls back to the error set when
// tag has none.
func (p *Policy) Template(tag Tag) string {
	options := p.templates[tag]
	if len(options) == 0 {
		options = p.templates[TagError]
	}
	if len(options) == 0 {
		return ""
	}

	p.mu.Lock()
	i := p.rnd.Intn(len(options))
	p.mu.Unlock()
	return options[i]
}

func (p *Policy) DetectHumanRequest(userText string) bool {
	return textmatch.AnyStem(textmatch.Fold(userText), p.markers.HumanRequest)
}

// DetectRepeatedConfusion reports whether at least two of the three most
// recent texts carry a confusion marker. texts holds guest utterances, newest
// first.
func (p *Policy) DetectRepeatedConfusion(texts []string) bool {
	if len(texts) > confusionWindow {
		texts = texts[:confusionWindow]
	}
	hits := 0
	for _, t := range texts {
		if textmatch.AnyStem(textmatch.Fold(t), p.markers.Confusion) {
			hits++
		}
	}
	return hits >= 2
}

// Decide maps a scorer verdict to the fallback shown to the user.
func (p *Policy) Decide(analysis domain.ConfidenceAnalysis) (Tag, string) {
	tag := TagLowConfidence
	if confidence.HasReason(analysis, confidence.ReasonComplex) || analysis.Score < veryLowScore {
		tag = TagComplexRequest
	}
	return tag, p.Template(tag)
}
