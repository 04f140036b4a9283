package retrieval

import (
	"errors"
	"sort"

	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/lexical"
)

// ErrInsufficientContext signals that no chunk cleared the relevance
// threshold. It is a first-class retrieval outcome, not a failure:
// downstream generation uses it to answer honestly instead of fabricating.
var ErrInsufficientContext = errors.New("no sufficiently relevant context")

// ScoreWeights are the hybrid composite weights. They must sum to 1 for
// the composite to stay in [0, 1].
type ScoreWeights struct {
	Vector  float64
	Keyword float64
	TFIDF   float64
}

// DefaultWeights returns the documented 60/25/15 split.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{Vector: 0.60, Keyword: 0.25, TFIDF: 0.15}
}

// ScorerConfig controls the hybrid merge.
type ScorerConfig struct {
	Weights    ScoreWeights
	MaxResults int
	// Thresholds maps a language to its minimum composite score. Languages
	// absent from the map fall back to their built-in default.
	Thresholds map[language.Language]float64
}

// DefaultScorerConfig returns the documented constants.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Weights:    DefaultWeights(),
		MaxResults: 5,
	}
}

func (c ScorerConfig) threshold(lang language.Language) float64 {
	if t, ok := c.Thresholds[lang]; ok {
		return t
	}
	return lang.DefaultThreshold()
}

// ScoredChunk is a candidate with its component and composite scores.
// All scores lie in [0, 1].
type ScoredChunk struct {
	Candidate
	VectorScore  float64
	KeywordScore float64
	TFIDFScore   float64
	Composite    float64
}

// Result is the ranked retrieval outcome for one query.
type Result struct {
	Chunks []ScoredChunk
}

// Languages returns the distinct languages across the result chunks.
func (r *Result) Languages() []language.Language {
	seen := make(map[language.Language]bool)
	var out []language.Language
	for _, c := range r.Chunks {
		if !seen[c.Language] {
			seen[c.Language] = true
			out = append(out, c.Language)
		}
	}
	return out
}

// Score merges vector similarity, keyword overlap and TF-IDF similarity
// into a ranked, deduplicated, threshold-filtered result. An empty
// candidate set or an empty surviving set yields ErrInsufficientContext;
// scores are never fabricated.
func Score(query string, lang language.Language, candidates []Candidate, cfg ScorerConfig) (*Result, error) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Weights == (ScoreWeights{}) {
		cfg.Weights = DefaultWeights()
	}
	if len(candidates) == 0 {
		return nil, ErrInsufficientContext
	}

	// Per-request lexical index over the candidate set only.
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	index := lexical.NewIndex(texts)

	scored := make([]ScoredChunk, 0, len(candidates))
	for i, c := range candidates {
		vector := ClampScore(c.Similarity)
		keyword := lexical.KeywordOverlap(query, c.Text)
		tfidf := index.Similarity(query, i)

		scored = append(scored, ScoredChunk{
			Candidate:    c,
			VectorScore:  vector,
			KeywordScore: keyword,
			TFIDFScore:   tfidf,
			Composite:    cfg.Weights.Vector*vector + cfg.Weights.Keyword*keyword + cfg.Weights.TFIDF*tfidf,
		})
	}

	scored = dedupe(scored)

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Composite != scored[j].Composite {
			return scored[i].Composite > scored[j].Composite
		}
		if scored[i].VectorScore != scored[j].VectorScore {
			return scored[i].VectorScore > scored[j].VectorScore
		}
		return scored[i].Ordinal < scored[j].Ordinal
	})

	threshold := cfg.threshold(lang)
	kept := scored[:0]
	for _, s := range scored {
		if s.Composite >= threshold {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, ErrInsufficientContext
	}
	if len(kept) > cfg.MaxResults {
		kept = kept[:cfg.MaxResults]
	}
	return &Result{Chunks: kept}, nil
}

// dedupe drops repeated chunk ids, keeping the higher-scoring occurrence.
func dedupe(scored []ScoredChunk) []ScoredChunk {
	best := make(map[string]int, len(scored))
	out := scored[:0]
	for _, s := range scored {
		if i, ok := best[s.ChunkID]; ok {
			if s.Composite > out[i].Composite {
				out[i] = s
			}
			continue
		}
		best[s.ChunkID] = len(out)
		out = append(out, s)
	}
	return out
}
