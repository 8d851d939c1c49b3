package server

import (
	"net/http"

	"github.com/flowbreak/focusagent/internal/attention"
	"github.com/flowbreak/focusagent/internal/focus"
	"github.com/flowbreak/focusagent/internal/payload"
)

func (s *Server) handleAnalyze(
	w http.ResponseWriter, r *http.Request,
) {
	var req payload.Metrics
	if !decodeRequest(w, r, &req) {
		return
	}
	res, err := s.agent.Analyze(r.Context(), req.SessionMetrics())
	if err != nil {
		writeInternalError(w, r, "analyze", err)
		return
	}
	s.metrics.PrimaryIssuesTotal.WithLabelValues(res.PrimaryIssue).Inc()
	writeJSON(w, http.StatusOK, res)
}

type eventsAnalysis struct {
	focus.Analysis
	Metrics attention.Derived `json:"metrics"`
}

// handleAnalyzeEvents derives metrics from raw browser events,
// stores them under the path's session id and analyzes them.
func (s *Server) handleAnalyzeEvents(
	w http.ResponseWriter, r *http.Request,
) {
	id := r.PathValue("id")
	var req payload.Events
	if !decodeRequest(w, r, &req) {
		return
	}
	derived := attention.Derive(req.Events)
	res, err := s.agent.Analyze(r.Context(), derived.Metrics(id, req.Events))
	if err != nil {
		writeInternalError(w, r, "analyze events", err)
		return
	}
	s.metrics.PrimaryIssuesTotal.WithLabelValues(res.PrimaryIssue).Inc()
	writeJSON(w, http.StatusOK, eventsAnalysis{
		Analysis: res,
		Metrics:  derived,
	})
}
