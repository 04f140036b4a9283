package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nahidhasan/banglarag/internal/chunker"
	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/parser"
	"github.com/nahidhasan/banglarag/internal/vectorstore"
)

// Embedder turns a batch of texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// DocumentStore receives fully embedded documents.
type DocumentStore interface {
	ReplaceDocument(name string, lang language.Language, textLength int, chunks []vectorstore.Chunk) error
	DeleteDocumentGroup(name string) (docs, chunks int)
}

// Worker processes a single document job.
type Worker struct {
	embedder Embedder
	store    DocumentStore
	log      *slog.Logger
	chunkCfg chunker.Config

	pageLimit          int
	embedBatchSize     int
	maxConcurrentEmbed int
}

func NewWorker(embedder Embedder, store DocumentStore, log *slog.Logger, chunkCfg chunker.Config, pageLimit, batchSize, maxEmbed int) *Worker {
	return &Worker{
		embedder:           embedder,
		store:              store,
		log:                log,
		chunkCfg:           chunkCfg,
		pageLimit:          pageLimit,
		embedBatchSize:     batchSize,
		maxConcurrentEmbed: maxEmbed,
	}
}

// Process runs the full ingest pipeline for a job: parse, split long PDFs
// into page windows, detect language, chunk, embed, store.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "file", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	ex, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetContentHash(ContentHashHex([]byte(ex.Text)))

	lang := language.Detect(ex.Text)
	job.SetLanguage(lang)
	log.Info("parsed document", "language", lang, "chars", len(ex.Text), "pages", len(ex.Pages))

	// Phase 2: Chunk each page window. Documents over the page limit are
	// split into windows first so no single embedding pass grows unbounded.
	job.SetStatus(StatusChunking, "chunking")
	windows := parser.Windows(ex, w.pageLimit)

	type windowChunks struct {
		name   string
		text   string
		chunks []chunker.Chunk
	}
	work := make([]windowChunks, 0, len(windows))
	total := 0
	for _, win := range windows {
		name := job.Filename
		if len(windows) > 1 {
			name = vectorstore.WindowName(job.Filename, win.FirstPage, win.LastPage)
		}
		chunks := chunker.Split(win.Text, lang, w.chunkCfg)
		work = append(work, windowChunks{name: name, text: win.Text, chunks: chunks})
		total += len(chunks)
	}
	job.SetTotalChunks(total)
	log.Info("chunked document", "windows", len(work), "chunks", total)

	if total == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	// Phase 3: Embed chunk batches with bounded concurrency.
	storedWindows := 0
	hadErrors := false
	staleCleared := false

	for _, win := range work {
		if len(win.chunks) == 0 {
			continue
		}
		job.SetStatus(StatusEmbedding, "embedding")
		embedded, embErr := w.embedWindow(ctx, job, log, win.chunks)
		if embErr != nil {
			log.Error("embedding failed", "document", win.name, "error", embErr)
			job.AddError(fmt.Sprintf("embed %s: %s", win.name, embErr))
			hadErrors = true
			continue
		}

		// Phase 4: Store. A window is stored wholesale or not at all so
		// chunk indices stay contiguous. The previous upload under this
		// filename is cleared before the first new window lands, so a
		// re-upload with fewer pages leaves no stale window documents;
		// clearing waits for the first embedded window so a fully failed
		// ingest keeps the old document intact.
		job.SetStatus(StatusStoring, "storing")
		if !staleCleared {
			w.store.DeleteDocumentGroup(job.Filename)
			staleCleared = true
		}
		docChunks := make([]vectorstore.Chunk, len(win.chunks))
		for i, c := range win.chunks {
			docChunks[i] = vectorstore.Chunk{
				Index:     c.Index,
				Text:      c.Text,
				Language:  lang,
				Embedding: embedded[i],
			}
		}
		if err := w.store.ReplaceDocument(win.name, lang, len(win.text), docChunks); err != nil {
			log.Error("store failed", "document", win.name, "error", err)
			job.AddError(fmt.Sprintf("store %s: %s", win.name, err))
			hadErrors = true
			continue
		}
		job.AddChunksStored(len(docChunks))
		storedWindows++
	}

	log.Info("ingest complete", "stored_windows", storedWindows, "errors", hadErrors)

	switch {
	case storedWindows == 0:
		job.SetStatus(StatusFailed, "storing")
	case hadErrors:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// embedWindow embeds a window's chunks in batches. Batches run
// concurrently up to the configured limit, with retry on rate limits and
// transient upstream failures. Any batch failing after retries fails the
// whole window.
func (w *Worker) embedWindow(ctx context.Context, job *Job, log *slog.Logger, chunks []chunker.Chunk) ([][]float32, error) {
	type batchResult struct {
		start   int
		vectors [][]float32
		err     error
	}

	batchSize := w.embedBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	maxConcurrent := w.maxConcurrentEmbed
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	numBatches := (len(chunks) + batchSize - 1) / batchSize
	results := make(chan batchResult, numBatches)
	sem := make(chan struct{}, maxConcurrent)

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}

		sem <- struct{}{}
		go func(start int, texts []string) {
			defer func() { <-sem }()
			var vectors [][]float32
			var lastErr error
			for attempt := 0; attempt < MaxRetries; attempt++ {
				vectors, lastErr = w.embedder.Embed(ctx, texts)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable embedding error", "batch_start", start, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- batchResult{start: start, err: ctx.Err()}
					return
				}
			}
			results <- batchResult{start: start, vectors: vectors, err: lastErr}
		}(start, texts)
	}

	collected := make([]batchResult, 0, numBatches)
	var firstErr error
	for i := 0; i < numBatches; i++ {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		job.AddChunksEmbedded(len(r.vectors))
		collected = append(collected, r)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].start < collected[j].start })
	embedded := make([][]float32, 0, len(chunks))
	for _, r := range collected {
		embedded = append(embedded, r.vectors...)
	}
	if len(embedded) != len(chunks) {
		return nil, fmt.Errorf("embedded %d vectors for %d chunks", len(embedded), len(chunks))
	}
	return embedded, nil
}
