package api

import (
	"net/http"
	"time"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.llm == nil || s.llm.Stats == nil {
		writeError(w, r, http.StatusServiceUnavailable, "llm stats unavailable", start)
		return
	}

	writeJSON(w, r, http.StatusOK, "", map[string]any{
		"model":       s.llm.ChatModel(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.llm.Stats.Snapshot(),
	}, start)
}
