package server

import (
	"net/http"

	"github.com/flowbreak/focusagent/internal/payload"
)

func (s *Server) handleChat(
	w http.ResponseWriter, r *http.Request,
) {
	var req payload.Question
	if !decodeRequest(w, r, &req) {
		return
	}
	ans, err := s.agent.Chat(r.Context(), *req.SessionID, *req.Question)
	if err != nil {
		writeInternalError(w, r, "chat", err)
		return
	}
	s.metrics.ChatIntentsTotal.WithLabelValues(ans.Intent).Inc()
	writeJSON(w, http.StatusOK, ans)
}
