// Package textmatch holds the keyword matching shared by the extractor,
// availability, confidence and escalation packages.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fold lowercases text and collapses runs of whitespace.
func Fold(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// HasStem reports whether stem occurs in folded text at the start of a word.
// A stem is a word prefix ("окн", "panoram") or a whole phrase ("not sure").
func HasStem(folded, stem string) bool {
	if stem == "" {
		return false
	}
	for offset := 0; offset < len(folded); {
		i := strings.Index(folded[offset:], stem)
		if i < 0 {
			return false
		}
		i += offset
		if i == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(folded[:i])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		_, size := utf8.DecodeRuneInString(folded[i:])
		offset = i + size
	}
	return false
}

// AnyStem reports whether any stem matches.
func AnyStem(folded string, stems []string) bool {
	for _, s := range stems {
		if HasStem(folded, s) {
			return true
		}
	}
	return false
}

// CountStems counts distinct matching stems.
func CountStems(folded string, stems []string) int {
	n := 0
	for _, s := range stems {
		if HasStem(folded, s) {
			n++
		}
	}
	return n
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
