package vectorstore

import (
	"context"
	"testing"

	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/retrieval"
)

func chunkAt(index int, text string, embedding []float32) Chunk {
	return Chunk{Index: index, Text: text, Language: language.Bengali, Embedding: embedding}
}

func TestReplaceDocument_RejectsGaps(t *testing.T) {
	s := NewStore()
	err := s.ReplaceDocument("doc1.pdf", language.Bengali, 10, []Chunk{
		chunkAt(0, "a", []float32{1}),
		chunkAt(2, "b", []float32{1}),
	})
	if err == nil {
		t.Fatal("expected error for non-contiguous chunk indices")
	}
}

func TestReplaceDocument_RejectsMissingEmbedding(t *testing.T) {
	s := NewStore()
	err := s.ReplaceDocument("doc1.pdf", language.Bengali, 10, []Chunk{
		{Index: 0, Text: "a"},
	})
	if err == nil {
		t.Fatal("expected error for chunk without embedding")
	}
}

func TestReplaceDocument_WholesaleReplace(t *testing.T) {
	s := NewStore()
	mustReplace(t, s, "doc1.pdf", []Chunk{
		chunkAt(0, "old a", []float32{1, 0}),
		chunkAt(1, "old b", []float32{1, 0}),
		chunkAt(2, "old c", []float32{1, 0}),
	})
	mustReplace(t, s, "doc1.pdf", []Chunk{
		chunkAt(0, "new a", []float32{1, 0}),
	})

	if got := s.ChunkCount(); got != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", got)
	}
	meta, ok := s.Document("doc1.pdf")
	if !ok {
		t.Fatal("expected document metadata")
	}
	if meta.TotalChunks != 1 {
		t.Errorf("expected total_chunks 1, got %d", meta.TotalChunks)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := NewStore()
	mustReplace(t, s, "doc1.pdf", []Chunk{chunkAt(0, "a", []float32{1})})

	if n := s.DeleteDocument("doc1.pdf"); n != 1 {
		t.Errorf("expected 1 chunk deleted, got %d", n)
	}
	if _, ok := s.Document("doc1.pdf"); ok {
		t.Error("expected metadata removed")
	}
	if n := s.DeleteDocument("doc1.pdf"); n != 0 {
		t.Errorf("expected 0 on repeat delete, got %d", n)
	}
}

func TestDeleteDocumentGroup(t *testing.T) {
	s := NewStore()
	mustReplace(t, s, "report.pdf", []Chunk{chunkAt(0, "a", []float32{1})})
	mustReplace(t, s, WindowName("report.pdf", 1, 25), []Chunk{
		chunkAt(0, "b", []float32{1}),
		chunkAt(1, "c", []float32{1}),
	})
	mustReplace(t, s, WindowName("report.pdf", 26, 40), []Chunk{chunkAt(0, "d", []float32{1})})
	mustReplace(t, s, "report2.pdf", []Chunk{chunkAt(0, "e", []float32{1})})

	docs, chunks := s.DeleteDocumentGroup("report.pdf")
	if docs != 3 {
		t.Errorf("expected 3 documents deleted, got %d", docs)
	}
	if chunks != 4 {
		t.Errorf("expected 4 chunks deleted, got %d", chunks)
	}
	if _, ok := s.Document(WindowName("report.pdf", 1, 25)); ok {
		t.Error("expected window document removed")
	}
	if _, ok := s.Document("report2.pdf"); !ok {
		t.Error("unrelated document was deleted")
	}

	docs, chunks = s.DeleteDocumentGroup("report.pdf")
	if docs != 0 || chunks != 0 {
		t.Errorf("expected 0,0 on repeat delete, got %d,%d", docs, chunks)
	}
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	s := NewStore()
	mustReplace(t, s, "doc1.pdf", []Chunk{
		chunkAt(0, "aligned", []float32{1, 0}),
		chunkAt(1, "orthogonal", []float32{0, 1}),
		chunkAt(2, "opposite", []float32{-1, 0}),
	})

	got, err := s.Search(context.Background(), []float32{1, 0}, 3, retrieval.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].Text != "aligned" {
		t.Errorf("expected best match first, got %q", got[0].Text)
	}
	if got[0].Similarity < 0.99 {
		t.Errorf("expected similarity ~1.0, got %f", got[0].Similarity)
	}
	if got[2].Similarity > -0.99 {
		t.Errorf("expected raw similarity near -1 for opposite vector, got %f", got[2].Similarity)
	}
}

func TestSearch_TopKCap(t *testing.T) {
	s := NewStore()
	var chunks []Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunkAt(i, "t", []float32{1}))
	}
	mustReplace(t, s, "doc1.pdf", chunks)

	got, err := s.Search(context.Background(), []float32{1}, 4, retrieval.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 candidates, got %d", len(got))
	}
}

func TestSearch_DocumentFilter(t *testing.T) {
	s := NewStore()
	mustReplace(t, s, "doc1.pdf", []Chunk{chunkAt(0, "from one", []float32{1})})
	mustReplace(t, s, "doc2.pdf", []Chunk{chunkAt(0, "from two", []float32{1})})

	got, err := s.Search(context.Background(), []float32{1}, 10, retrieval.Filter{Document: "doc2.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Document != "doc2.pdf" {
		t.Errorf("expected only doc2.pdf chunks, got %v", got)
	}
}

func TestSearch_LanguageFilter(t *testing.T) {
	s := NewStore()
	mustReplace(t, s, "bn.pdf", []Chunk{chunkAt(0, "বাংলা", []float32{1})})

	en := Chunk{Index: 0, Text: "english", Language: language.English, Embedding: []float32{1}}
	if err := s.ReplaceDocument("en.pdf", language.English, 7, []Chunk{en}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Search(context.Background(), []float32{1}, 10, retrieval.Filter{Language: language.English})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Document != "en.pdf" {
		t.Errorf("expected only english chunks, got %v", got)
	}
}

func TestSearch_OrdinalsFollowIngestionOrder(t *testing.T) {
	s := NewStore()
	mustReplace(t, s, "first.pdf", []Chunk{chunkAt(0, "a", []float32{1})})
	mustReplace(t, s, "second.pdf", []Chunk{chunkAt(0, "b", []float32{1})})

	got, err := s.Search(context.Background(), []float32{1}, 10, retrieval.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Identical similarity: earlier ingested document comes first.
	if got[0].Document != "first.pdf" {
		t.Errorf("expected ingestion order tie break, got %q first", got[0].Document)
	}
	if got[0].Ordinal >= got[1].Ordinal {
		t.Errorf("expected strictly increasing ordinals, got %d then %d", got[0].Ordinal, got[1].Ordinal)
	}
}

func mustReplace(t *testing.T, s *Store, name string, chunks []Chunk) {
	t.Helper()
	if err := s.ReplaceDocument(name, language.Bengali, 100, chunks); err != nil {
		t.Fatalf("ReplaceDocument(%s): %v", name, err)
	}
}
