// Package retrieval fuses vector similarity, keyword overlap and TF-IDF
// similarity into one ranked result set. It consumes an external vector
// index through the VectorIndex interface and owns only score
// normalization and the hybrid merge.
package retrieval

import (
	"context"
	"fmt"

	"github.com/nahidhasan/banglarag/internal/language"
)

// Candidate is one chunk returned by the vector index, before hybrid
// scoring. Similarity is the raw index score in [-1, 1]. Ordinal is the
// chunk's document ingestion order, used as the final tie breaker.
type Candidate struct {
	ChunkID     string
	Document    string
	ChunkIndex  int
	TotalChunks int
	Text        string
	Language    language.Language
	Similarity  float64
	Ordinal     int
}

// Filter narrows a vector search to one document or one language.
// Zero values mean no filtering.
type Filter struct {
	Document string
	Language language.Language
}

// VectorIndex is the external nearest-neighbour index. Implementations
// return up to topK candidates ordered by descending raw similarity.
type VectorIndex interface {
	Search(ctx context.Context, embedding []float32, topK int, filter Filter) ([]Candidate, error)
}

// Embedder produces the query embedding. Failures must surface as errors,
// never as zero vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ClampScore normalizes a raw index similarity from [-1, 1] into [0, 1].
func ClampScore(raw float64) float64 {
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

// Retriever runs the full retrieve-and-score path for a query.
type Retriever struct {
	index    VectorIndex
	embedder Embedder
	topK     int
	scorer   ScorerConfig
}

// NewRetriever wires an embedder and a vector index to the hybrid scorer.
// topK is the candidate count requested from the index, not the result cap.
func NewRetriever(embedder Embedder, index VectorIndex, topK int, scorer ScorerConfig) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		index:    index,
		embedder: embedder,
		topK:     topK,
		scorer:   scorer,
	}
}

// Retrieve embeds the query, searches the index, and hybrid-scores the
// candidates. It returns ErrInsufficientContext when nothing clears the
// language threshold; infrastructure failures come back as wrapped errors.
func (r *Retriever) Retrieve(ctx context.Context, query string, lang language.Language, filter Filter) (*Result, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := r.index.Search(ctx, embedding, r.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return Score(query, lang, candidates, r.scorer)
}
