// Package chunker splits raw document text into bounded, ordered chunks.
// Splits prefer sentence terminators, then whitespace, then a hard cut, so
// concatenating the chunks in order always reproduces the input exactly.
package chunker

import (
	"unicode"

	"github.com/nahidhasan/banglarag/internal/language"
)

// Config controls chunking behavior. All sizes are in characters (runes).
type Config struct {
	MaxChars           int // Hard upper bound on chunk length.
	SentenceLookback   int // How far back from the boundary to search for a sentence end.
	WhitespaceLookback int // How far back to search for whitespace when no sentence end exists.
}

// DefaultConfig returns sensible defaults targeting 5000-6000 character chunks.
func DefaultConfig() Config {
	return Config{
		MaxChars:           5500,
		SentenceLookback:   500,
		WhitespaceLookback: 100,
	}
}

// Chunk is one bounded segment of a document. Index is the position within
// the document, contiguous from 0.
type Chunk struct {
	Index int
	Text  string
}

// Split produces the ordered chunk sequence for text. Empty input yields an
// empty sequence. The last chunk may be arbitrarily short; every other chunk
// ends at a sentence terminator, a whitespace boundary, or the hard limit.
func Split(text string, lang language.Language, cfg Config) []Chunk {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 5500
	}
	if cfg.SentenceLookback <= 0 {
		cfg.SentenceLookback = 500
	}
	if cfg.WhitespaceLookback <= 0 {
		cfg.WhitespaceLookback = 100
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []Chunk
	pos := 0
	for len(runes)-pos > cfg.MaxChars {
		end := pos + cfg.MaxChars

		split := sentenceSplit(runes, pos, end, cfg.SentenceLookback, lang)
		if split < 0 {
			split = whitespaceSplit(runes, pos, end, cfg.WhitespaceLookback)
		}
		if split < 0 {
			// Degenerate: one long token with no boundaries in range.
			split = end
		}

		chunks = append(chunks, Chunk{Index: len(chunks), Text: string(runes[pos:split])})
		pos = split
	}

	chunks = append(chunks, Chunk{Index: len(chunks), Text: string(runes[pos:])})
	return chunks
}

// sentenceSplit searches backward from end for the nearest sentence
// terminator and returns the index just past it, or -1 if none is within
// the lookback window. The terminator stays with the left chunk.
func sentenceSplit(runes []rune, pos, end, lookback int, lang language.Language) int {
	floor := end - lookback
	if floor <= pos {
		floor = pos + 1
	}
	for i := end - 1; i >= floor; i-- {
		if lang.IsTerminator(runes[i]) {
			return i + 1
		}
	}
	return -1
}

// whitespaceSplit searches backward from end for the nearest whitespace rune
// and returns its index, so the whitespace opens the next chunk.
func whitespaceSplit(runes []rune, pos, end, lookback int) int {
	floor := end - lookback
	if floor <= pos {
		floor = pos + 1
	}
	for i := end - 1; i >= floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
