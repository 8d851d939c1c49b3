package server

import "net/http"

type healthResponse struct {
	Status       string `json:"status"`
	SessionCount int    `json:"sessionCount"`
}

func (s *Server) handleHealth(
	w http.ResponseWriter, r *http.Request,
) {
	n, err := s.agent.SessionCount(r.Context())
	if err != nil {
		writeInternalError(w, r, "health", err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		SessionCount: n,
	})
}
