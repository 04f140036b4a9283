package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/parser"
	"github.com/nahidhasan/banglarag/internal/pipeline"
	"github.com/nahidhasan/banglarag/internal/retrieval"
)

// handleUpload accepts a document and queues it for ingestion. The reply
// carries a job ID to poll; parsing, chunking and embedding run in the
// worker pool.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form: "+err.Error(), start)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required: "+err.Error(), start)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filepath.Ext(filename)) {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), start)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to read file", start)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), start)
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:        pipeline.NewJobID(),
		Filename:  filename,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error(), start)
		return
	}

	writeJSON(w, r, http.StatusAccepted, "document queued for processing", map[string]any{
		"job_id":    job.ID,
		"file_name": job.Filename,
		"status":    job.Status,
		"poll_url":  fmt.Sprintf("/api/documents/upload/%s/status", job.ID),
	}, start)
}

func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, r, http.StatusNotFound, "job not found", start)
		return
	}
	writeJSON(w, r, http.StatusOK, "", job.Snapshot(), start)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	docs := s.store.Documents()
	writeJSON(w, r, http.StatusOK, "", map[string]any{
		"documents":    docs,
		"total":        len(docs),
		"total_chunks": s.store.ChunkCount(),
	}, start)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, r, http.StatusBadRequest, "invalid document name", start)
		return
	}
	// Group delete covers page-window documents registered under
	// "<name> (pages a-b)" so oversized uploads delete by upload name.
	docsDeleted, chunksDeleted := s.store.DeleteDocumentGroup(name)
	if docsDeleted == 0 {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("document %q not found", name), start)
		return
	}
	writeJSON(w, r, http.StatusOK, "document deleted", map[string]any{
		"file_name":         name,
		"documents_deleted": docsDeleted,
		"chunks_deleted":    chunksDeleted,
	}, start)
}

type retrieveRequest struct {
	Query    string `json:"query"`
	Document string `json:"file_name,omitempty"`
	Language string `json:"language,omitempty"`
}

// handleRetrieve runs retrieval without generation, exposing the scored
// chunks for inspection and tuning.
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req retrieveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), start)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, http.StatusBadRequest, "query is required", start)
		return
	}

	lang := language.Detect(req.Query)
	filter := retrieval.Filter{Document: req.Document, Language: language.Language(req.Language)}
	result, err := s.retriever.Retrieve(r.Context(), req.Query, lang, filter)
	if errors.Is(err, retrieval.ErrInsufficientContext) {
		writeJSON(w, r, http.StatusOK, "no sufficiently relevant context", map[string]any{
			"query":             req.Query,
			"language_detected": lang,
			"chunks":            []any{},
		}, start)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "retrieval failed: "+err.Error(), start)
		return
	}

	type scored struct {
		Document       string  `json:"file_name"`
		ChunkIndex     int     `json:"chunk_index"`
		Text           string  `json:"text"`
		Language       string  `json:"language"`
		VectorScore    float64 `json:"vector_score"`
		KeywordScore   float64 `json:"keyword_score"`
		TFIDFScore     float64 `json:"tfidf_score"`
		CompositeScore float64 `json:"composite_score"`
	}
	chunks := make([]scored, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = scored{
			Document:       c.Document,
			ChunkIndex:     c.ChunkIndex,
			Text:           c.Text,
			Language:       string(c.Language),
			VectorScore:    c.VectorScore,
			KeywordScore:   c.KeywordScore,
			TFIDFScore:     c.TFIDFScore,
			CompositeScore: c.Composite,
		}
	}
	writeJSON(w, r, http.StatusOK, "", map[string]any{
		"query":             req.Query,
		"language_detected": lang,
		"chunks":            chunks,
	}, start)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
