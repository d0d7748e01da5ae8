package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/textmatch"
)

const (
	minPartySize = 1
	maxPartySize = 20

	firstBareHour = 10
	lastBareHour  = 23
)

// Extractor turns conversation text into a booking draft. Turns are ordered
// newest first; for every slot the most recent mention wins.
type Extractor interface {
	Extract(turns []string, now time.Time) domain.BookingDraft
	Fold(draft domain.BookingDraft, utterance string, now time.Time) domain.BookingDraft
}

// ZoneMatcher infers a seating zone from free text.
type ZoneMatcher interface {
	Infer(text string) (domain.Zone, bool)
}

// RequestTag maps keyword stems to a special-request label stored in reservation notes.
type RequestTag struct {
	Tag   string
	Stems []string
}

var defaultRequestTags = []RequestTag{
	{Tag: "birthday", Stems: []string{"birthday", "bday", "день рожд", "днем рожд", "днём рожд"}},
	{Tag: "anniversary", Stems: []string{"anniversary", "годовщин"}},
	{Tag: "romantic", Stems: []string{"romantic", "date night", "романт", "свидани"}},
	{Tag: "business", Stems: []string{"business", "meeting", "делов", "переговор"}},
	{Tag: "children", Stems: []string{"high chair", "child seat", "kids", "детск"}},
	{Tag: "accessibility", Stems: []string{"wheelchair", "инвалидн"}},
}

var intentStems = []string{
	"reserve", "reservation", "book", "table", "seat",
	"брон", "забронир", "стол", "мест",
}

var (
	nameRe = regexp.MustCompile(`(?:^|[^\p{L}])(?:my name is|name is|under the name of|under the name|call me|меня зовут|зовут|на имя)\s+(\p{L}+)`)

	phoneRe = regexp.MustCompile(`\+?\d[\d\s\-()]{9,}`)

	// dates and clock times run together with spaces and dashes look like phones
	dateTimeSpanRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}:\d{2}\b`)

	partyRe = regexp.MustCompile(`(?:^|\D)(\d{1,3})\s*(?:people|persons|person|guests|guest|pax|чел|персон|гост)` +
		`|party of\s+(\d{1,3})` +
		`|there will be\s+(\d{1,3})` +
		`|(?:^|[^\p{L}])(?:нас будет|будет)\s+(\d{1,3})` +
		`|(?:^|[^\p{L}])for\s+(\d{1,3})(\s*(?::\d|am\b|pm\b|o'?clock|h\b|hours?\b))?`)

	isoDateRe = regexp.MustCompile(`(?:^|\D)(\d{4}-\d{2}-\d{2})(?:\D|$)`)

	clockRe = regexp.MustCompile(`(?:^|\D)(\d{1,2}):(\d{2})(?:\D|$)`)

	bareHourRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[^\p{L}])(?:at|around|в|к)\s+(\d{1,2})(?:\s*(am\b|pm\b|o'?clock|h\b|час\p{L}*))?(?:[^\d:]|$)`),
		regexp.MustCompile(`(?:^|[^\p{L}])(?:for|на)\s+(\d{1,2})\s*(am\b|pm\b|o'?clock|час\p{L}*)`),
		regexp.MustCompile(`(?:^|\D)(\d{1,2})\s*(o'?clock|pm\b|am\b)`),
	}
)

var nameStopwords = map[string]struct{}{
	"back": {}, "later": {}, "please": {}, "now": {}, "again": {}, "today": {}, "tomorrow": {},
}

type Pattern struct {
	zones    ZoneMatcher
	requests []RequestTag
}

type Option func(*Pattern)

// WithRequestTags replaces the special-request keyword table.
func WithRequestTags(tags []RequestTag) Option {
	return func(p *Pattern) {
		p.requests = append([]RequestTag(nil), tags...)
	}
}

func NewPattern(zones ZoneMatcher, opts ...Option) *Pattern {
	p := &Pattern{zones: zones, requests: defaultRequestTags}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pattern) Extract(turns []string, now time.Time) domain.BookingDraft {
	var d domain.BookingDraft
	for i, turn := range turns {
		folded := textmatch.Fold(turn)
		if d.Name == "" {
			d.Name = extractName(folded)
		}
		if d.Phone == "" {
			d.Phone = extractPhone(turn)
		}
		if d.PartySize == 0 {
			d.PartySize = extractPartySize(folded)
		}
		if HasBookingIntent(folded) {
			if d.Date == "" {
				d.Date = extractDate(folded, now)
			}
			if d.Time == "" {
				d.Time = extractTime(folded)
			}
		}
		if i == 0 {
			if p.zones != nil {
				if z, ok := p.zones.Infer(folded); ok {
					d.Zone = z
				}
			}
			d.SpecialRequests = p.extractRequests(folded)
		}
	}
	return d
}

func (p *Pattern) Fold(draft domain.BookingDraft, utterance string, now time.Time) domain.BookingDraft {
	return draft.Merge(p.Extract([]string{utterance}, now))
}

func (p *Pattern) extractRequests(folded string) []string {
	var tags []string
	for _, rt := range p.requests {
		if textmatch.AnyStem(folded, rt.Stems) {
			tags = append(tags, rt.Tag)
		}
	}
	return tags
}

// HasBookingIntent reports whether text talks about reserving a table.
func HasBookingIntent(folded string) bool {
	return textmatch.AnyStem(folded, intentStems)
}

func extractName(folded string) string {
	m := nameRe.FindStringSubmatch(folded)
	if m == nil {
		return ""
	}
	if _, stop := nameStopwords[m[1]]; stop {
		return ""
	}
	return capitalize(m[1])
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// extractPhone keeps digits only; candidates shorter than ten digits are
// dates or counts, not phone numbers.
func extractPhone(text string) string {
	text = dateTimeSpanRe.ReplaceAllString(text, " | ")
	for _, raw := range phoneRe.FindAllString(text, -1) {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, raw)
		if len(digits) >= 10 && len(digits) <= 15 {
			return digits
		}
	}
	return ""
}

func extractPartySize(folded string) int {
	for _, m := range partyRe.FindAllStringSubmatch(folded, -1) {
		var raw string
		switch {
		case m[1] != "":
			raw = m[1]
		case m[2] != "":
			raw = m[2]
		case m[3] != "":
			raw = m[3]
		case m[4] != "":
			raw = m[4]
		case m[5] != "":
			if m[6] != "" {
				// "for 19:00", "for 7 pm"
				continue
			}
			raw = m[5]
		default:
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if n < minPartySize || n > maxPartySize {
			return 0
		}
		return n
	}
	return 0
}

func extractDate(folded string, now time.Time) string {
	if m := isoDateRe.FindStringSubmatch(folded); m != nil && domain.ValidDate(m[1]) {
		return m[1]
	}
	switch {
	case textmatch.HasStem(folded, "day after tomorrow"), textmatch.HasStem(folded, "послезавтра"):
		return now.AddDate(0, 0, 2).Format(domain.DateLayout)
	case textmatch.HasStem(folded, "tomorrow"), textmatch.HasStem(folded, "завтра"):
		return now.AddDate(0, 0, 1).Format(domain.DateLayout)
	case textmatch.HasStem(folded, "today"), textmatch.HasStem(folded, "tonight"), textmatch.HasStem(folded, "сегодня"):
		return now.Format(domain.DateLayout)
	}
	return ""
}

func extractTime(folded string) string {
	for _, m := range clockRe.FindAllStringSubmatch(folded, -1) {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h <= 23 && min <= 59 {
			return fmt.Sprintf("%02d:%02d", h, min)
		}
	}
	for _, re := range bareHourRes {
		for _, m := range re.FindAllStringSubmatch(folded, -1) {
			h, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			switch m[2] {
			case "pm":
				if h < 12 {
					h += 12
				}
			case "am":
				if h == 12 {
					h = 0
				}
			}
			if h >= firstBareHour && h <= lastBareHour {
				return fmt.Sprintf("%02d:00", h)
			}
		}
	}
	return ""
}

var _ Extractor = (*Pattern)(nil)
