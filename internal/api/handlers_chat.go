package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`

	// ExpectedAnswer is required on the evaluate endpoint only.
	ExpectedAnswer string `json:"expected_answer,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.serveChat(w, r, false)
}

// handleChatEvaluate answers like handleChat and additionally scores the
// answer for groundedness and retrieval relevance.
func (s *Server) handleChatEvaluate(w http.ResponseWriter, r *http.Request) {
	s.serveChat(w, r, true)
}

func (s *Server) serveChat(w http.ResponseWriter, r *http.Request, evaluated bool) {
	start := time.Now()
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), start)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, http.StatusBadRequest, "query is required", start)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, r, http.StatusBadRequest, "session_id is required", start)
		return
	}
	if evaluated && strings.TrimSpace(req.ExpectedAnswer) == "" {
		writeError(w, r, http.StatusBadRequest, "expected_answer is required", start)
		return
	}

	var (
		answer any
		err    error
	)
	if evaluated {
		answer, err = s.chat.AskEvaluated(r.Context(), req.SessionID, req.Query, req.ExpectedAnswer)
	} else {
		answer, err = s.chat.Ask(r.Context(), req.SessionID, req.Query)
	}
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "chat failed: "+err.Error(), start)
		return
	}
	writeJSON(w, r, http.StatusOK, "", answer, start)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sessionID := chi.URLParam(r, "sessionID")
	history, ok := s.mem.History(sessionID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found", start)
		return
	}
	writeJSON(w, r, http.StatusOK, "", history, start)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sessionID := chi.URLParam(r, "sessionID")
	if !s.mem.Clear(sessionID) {
		writeError(w, r, http.StatusNotFound, "session not found", start)
		return
	}
	writeJSON(w, r, http.StatusOK, "session cleared", map[string]any{
		"session_id": sessionID,
	}, start)
}
