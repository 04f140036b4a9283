// Package language classifies text as Bengali, English or mixed and carries
// the per-language constants the rest of the system keys off: sentence
// terminators for chunking and the minimum composite retrieval threshold.
package language

import (
	"regexp"
	"strings"
	"unicode"
)

// Language is the detected language of a document or query.
type Language string

const (
	Bengali Language = "bengali"
	English Language = "english"
	Mixed   Language = "mixed"
	Unknown Language = "unknown"
)

const (
	bengaliRangeLow  = 0x0980
	bengaliRangeHigh = 0x09FF
)

// Detect classifies text by the ratio of Bengali to Latin letters.
// Above 60% Bengali is bengali, below 20% is english, anything in
// between is mixed. Text with no letters at all is unknown.
func Detect(text string) Language {
	var bengali, latin int
	for _, r := range text {
		switch {
		case r >= bengaliRangeLow && r <= bengaliRangeHigh:
			bengali++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}
	total := bengali + latin
	if total == 0 {
		return Unknown
	}
	ratio := float64(bengali) / float64(total)
	switch {
	case ratio > 0.6:
		return Bengali
	case ratio < 0.2:
		return English
	default:
		return Mixed
	}
}

// Terminators returns the sentence-ending runes the chunker may split after.
func (l Language) Terminators() []rune {
	switch l {
	case Bengali:
		return []rune{'।', '.', '!', '?'}
	case English:
		return []rune{'.', '!', '?'}
	default:
		// Mixed and unknown text can carry either convention.
		return []rune{'।', '.', '!', '?'}
	}
}

// IsTerminator reports whether r ends a sentence in this language.
func (l Language) IsTerminator(r rune) bool {
	for _, t := range l.Terminators() {
		if r == t {
			return true
		}
	}
	return false
}

// DefaultThreshold is the default minimum composite retrieval score for
// this language. Bengali queries score lower lexically against romanized
// or OCR'd text, so the bar sits lower.
func (l Language) DefaultThreshold() float64 {
	switch l {
	case English:
		return 0.35
	default:
		return 0.30
	}
}

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize collapses runs of whitespace and lowercases Latin letters so
// lexical comparisons see one canonical form. Bengali has no case.
func Normalize(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return strings.Map(unicode.ToLower, text)
}
