// Package lexical provides term-level similarity over chunk text: a
// tokenizer that respects Bengali and Latin word runs, a TF-IDF index
// rebuilt per request from the retrieval candidate set, and the raw
// keyword-overlap ratio between a query and a chunk.
package lexical

import (
	"math"
	"regexp"
	"strings"

	"github.com/nahidhasan/banglarag/internal/language"
)

// wordRe matches a run of Bengali letters or a run of Latin letters.
// Punctuation, digits and everything else act as separators.
var wordRe = regexp.MustCompile(`[\x{0980}-\x{09FF}]+|[a-zA-Z]+`)

// Tokenize lowercases text and returns its Bengali/Latin word runs in order.
func Tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// KeywordOverlap returns the fraction of distinct query terms that appear
// verbatim in doc. An empty query yields 0.
func KeywordOverlap(query, doc string) float64 {
	queryTerms := termSet(Tokenize(query))
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := termSet(Tokenize(doc))

	hits := 0
	for term := range queryTerms {
		if _, ok := docTerms[term]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}

func termSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Index is a TF-IDF representation over a small corpus of chunk texts.
// It is cheap to build and meant to be rebuilt per request from the
// candidate set rather than maintained globally.
type Index struct {
	docs []map[string]float64 // term -> raw frequency, per document
	df   map[string]int       // term -> number of documents containing it
	n    int
}

// NewIndex builds an index over the given texts. Texts are normalized
// before tokenization so lexical comparisons are case-insensitive.
func NewIndex(texts []string) *Index {
	ix := &Index{
		docs: make([]map[string]float64, len(texts)),
		df:   make(map[string]int),
		n:    len(texts),
	}
	for i, text := range texts {
		freq := make(map[string]float64)
		for _, term := range Tokenize(language.Normalize(text)) {
			freq[term]++
		}
		ix.docs[i] = freq
		for term := range freq {
			ix.df[term]++
		}
	}
	return ix
}

// Len returns the number of documents in the index.
func (ix *Index) Len() int { return ix.n }

// idf uses smoothed inverse document frequency so terms never vanish,
// which matters for Bengali where stopword lists are unreliable.
func (ix *Index) idf(term string) float64 {
	return math.Log(float64(1+ix.n)/float64(1+ix.df[term])) + 1
}

// Similarity computes the TF-IDF cosine similarity between a free-text
// query and the document at docIdx. Out-of-range indices yield 0.
func (ix *Index) Similarity(query string, docIdx int) float64 {
	if docIdx < 0 || docIdx >= ix.n {
		return 0
	}
	queryFreq := make(map[string]float64)
	for _, term := range Tokenize(language.Normalize(query)) {
		queryFreq[term]++
	}
	if len(queryFreq) == 0 {
		return 0
	}
	doc := ix.docs[docIdx]

	var dot, queryNorm, docNorm float64
	for term, qf := range queryFreq {
		w := qf * ix.idf(term)
		queryNorm += w * w
		if df, ok := doc[term]; ok {
			dot += w * df * ix.idf(term)
		}
	}
	for term, df := range doc {
		w := df * ix.idf(term)
		docNorm += w * w
	}
	if queryNorm == 0 || docNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(queryNorm) * math.Sqrt(docNorm))
}
