// Package focus holds the deterministic reasoning over a focus
// session: the analyzer that classifies a session's metrics and the
// rule-based router that answers questions about a stored session.
package focus

import (
	"encoding/json"
	"maps"
	"slices"
)

// DefaultMaxScore is used when a request omits maxScore.
const DefaultMaxScore = 100

// SessionMetrics is the telemetry of one tracked session. The
// JSON form matches the analyze request body.
type SessionMetrics struct {
	SessionID       string         `json:"sessionId"`
	FocusScore      float64        `json:"focusScore"`
	MaxScore        float64        `json:"maxScore"`
	AttentionBreaks int            `json:"attentionBreaks"`
	IdleMinutes     float64        `json:"idleMinutes"`
	DomainStats     map[string]int `json:"domainStats"`

	// Events is carried through to the store but never
	// interpreted by Analyze or Route.
	Events []json.RawMessage `json:"events,omitempty"`
}

// SessionContext is the stored form of a session's metrics.
type SessionContext = SessionMetrics

// Clone returns a deep copy so the stored value cannot be
// mutated through the caller's map or slices.
func (m SessionMetrics) Clone() SessionMetrics {
	out := m
	out.DomainStats = maps.Clone(m.DomainStats)
	if out.DomainStats == nil {
		out.DomainStats = map[string]int{}
	}
	out.Events = make([]json.RawMessage, len(m.Events))
	for i, ev := range m.Events {
		out.Events[i] = slices.Clone(ev)
	}
	return out
}

// Issue is a label produced by a single threshold check.
type Issue string

const (
	IssueLowFocus       Issue = "low_focus_score"
	IssueModerateFocus  Issue = "moderate_focus_score"
	IssueHighBreaks     Issue = "high_attention_breaks"
	IssueModerateBreaks Issue = "moderate_attention_breaks"
	IssueHighIdle       Issue = "high_idle_time"
	IssueModerateIdle   Issue = "moderate_idle_time"
)

// StatusAnalyzed is the status of every completed analysis.
const StatusAnalyzed = "analyzed"

const (
	notAvailable       = "N/A"
	topDomainLimit     = 3
	summaryDomainLimit = 2
)

// Analysis is the verdict for one session.
type Analysis struct {
	Summary      string  `json:"summary"`
	PrimaryIssue string  `json:"primaryIssue"`
	Status       string  `json:"status"`
	Issues       []Issue `json:"issues"`
}

// Answer is the router's reply to a question.
type Answer struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning,omitempty"`

	// Intent names the rule that produced the answer.
	Intent string `json:"-"`
}

// DomainCount is one entry of a ranked domain list.
type DomainCount struct {
	Domain string `json:"domain"`
	Visits int    `json:"visits"`
}
