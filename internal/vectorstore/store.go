// Package vectorstore is an in-process vector index and document registry.
// It implements retrieval.VectorIndex with brute-force cosine search,
// which is plenty for a corpus of a few thousand chunks; a hosted index
// can replace it behind the same interface.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/retrieval"
)

// Chunk is one stored retrieval unit with its embedding.
type Chunk struct {
	ID          string
	Document    string
	Index       int
	TotalChunks int
	Text        string
	Language    language.Language
	Embedding   []float32
}

// DocumentMeta describes one registered document.
type DocumentMeta struct {
	Name        string            `json:"file_name"`
	Language    language.Language `json:"language_detected"`
	TotalChunks int               `json:"total_chunks"`
	TextLength  int               `json:"text_length"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type stored struct {
	Chunk
	ordinal int
}

// Store holds chunks keyed by document name. Documents are replaced
// wholesale: an update deletes every existing chunk first, so chunk
// indices stay contiguous from 0.
type Store struct {
	mu          sync.RWMutex
	byDoc       map[string][]stored
	meta        map[string]DocumentMeta
	nextOrdinal int
}

func NewStore() *Store {
	return &Store{
		byDoc: make(map[string][]stored),
		meta:  make(map[string]DocumentMeta),
	}
}

// ReplaceDocument removes any existing chunks for the document and stores
// the new set, assigning ingestion ordinals in sequence order.
func (s *Store) ReplaceDocument(name string, lang language.Language, textLength int, chunks []Chunk) error {
	for i, c := range chunks {
		if c.Index != i {
			return fmt.Errorf("chunk indices must be contiguous from 0, got %d at position %d", c.Index, i)
		}
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %d has no embedding", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	createdAt := now
	if prev, ok := s.meta[name]; ok {
		createdAt = prev.CreatedAt
	}

	entries := make([]stored, len(chunks))
	for i, c := range chunks {
		c.Document = name
		c.TotalChunks = len(chunks)
		if c.ID == "" {
			c.ID = fmt.Sprintf("%s#%d", name, c.Index)
		}
		entries[i] = stored{Chunk: c, ordinal: s.nextOrdinal}
		s.nextOrdinal++
	}
	s.byDoc[name] = entries
	s.meta[name] = DocumentMeta{
		Name:        name,
		Language:    lang,
		TotalChunks: len(chunks),
		TextLength:  textLength,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	return nil
}

// DeleteDocument removes a document and returns how many chunks it held.
func (s *Store) DeleteDocument(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.byDoc[name])
	delete(s.byDoc, name)
	delete(s.meta, name)
	return n
}

// WindowName is the registered name for one page window of a document
// ingested in page-window pieces.
func WindowName(name string, firstPage, lastPage int) string {
	return fmt.Sprintf("%s (pages %d-%d)", name, firstPage, lastPage)
}

func windowPrefix(name string) string {
	return name + " (pages "
}

// DeleteDocumentGroup removes a document together with every page-window
// document derived from it, so deleting by the upload name always clears
// a windowed ingest. Returns the deleted document and chunk counts.
func (s *Store) DeleteDocumentGroup(name string) (docs, chunks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := windowPrefix(name)
	for docName, entries := range s.byDoc {
		if docName == name || strings.HasPrefix(docName, prefix) {
			docs++
			chunks += len(entries)
			delete(s.byDoc, docName)
			delete(s.meta, docName)
		}
	}
	return docs, chunks
}

// Document returns a document's metadata.
func (s *Store) Document(name string) (DocumentMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[name]
	return m, ok
}

// Documents lists all registered documents, sorted by name.
func (s *Store) Documents() []DocumentMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DocumentMeta, 0, len(s.meta))
	for _, m := range s.meta {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ChunkCount returns the total chunks across all documents.
func (s *Store) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, chunks := range s.byDoc {
		n += len(chunks)
	}
	return n
}

// Search implements retrieval.VectorIndex: brute-force cosine similarity
// over stored chunks, optionally scoped to one document or language,
// returning up to topK candidates by descending raw similarity.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int, filter retrieval.Filter) ([]retrieval.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []retrieval.Candidate
	for doc, chunks := range s.byDoc {
		if filter.Document != "" && filter.Document != doc {
			continue
		}
		for _, c := range chunks {
			if filter.Language != "" && filter.Language != c.Language {
				continue
			}
			candidates = append(candidates, retrieval.Candidate{
				ChunkID:     c.ID,
				Document:    c.Document,
				ChunkIndex:  c.Index,
				TotalChunks: c.TotalChunks,
				Text:        c.Text,
				Language:    c.Language,
				Similarity:  cosine(embedding, c.Embedding),
				Ordinal:     c.ordinal,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Ordinal < candidates[j].Ordinal
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
