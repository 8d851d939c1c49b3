package attention

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/flowbreak/focusagent/internal/focus"
)

// Domain categories.
const (
	Productive  = "productive"
	Neutral     = "neutral"
	Distracting = "distracting"
)

var domainCategories = map[string]string{
	"github.com":        Productive,
	"stackoverflow.com": Productive,
	"localhost":         Productive,
	"chatgpt.com":       Neutral,
	"newtab":            Neutral,
	"youtube.com":       Distracting,
}

// Scoring constants.
const (
	maxScore              = 100
	idleGraceSeconds      = 30
	breakPenaltyEach      = 5
	breakPenaltyCap       = 40
	idlePenaltyPerMinute  = 0.5
	idlePenaltyCap        = 30
	distractingPenalty    = 2
	distractingPenaltyCap = 30
)

// Classify returns the category of a domain. Unknown and empty
// domains are neutral.
func Classify(domain string) string {
	if c, ok := domainCategories[domain]; ok {
		return c
	}
	return Neutral
}

// DomainSummary counts events per domain category.
type DomainSummary struct {
	Productive  int `json:"productive"`
	Neutral     int `json:"neutral"`
	Distracting int `json:"distracting"`
}

// Penalty breaks the score deduction down by source.
type Penalty struct {
	Breaks      float64 `json:"breaks"`
	Idle        float64 `json:"idle"`
	Distracting float64 `json:"distracting"`
	Total       float64 `json:"total"`
}

// Derived is everything computed from a session's raw events.
type Derived struct {
	FocusScore      float64        `json:"focusScore"`
	MaxScore        float64        `json:"maxScore"`
	Penalty         Penalty        `json:"penalty"`
	AttentionBreaks int            `json:"attentionBreaks"`
	IdleMinutes     float64        `json:"idleMinutes"`
	DomainStats     map[string]int `json:"domainStats"`
	DomainSummary   DomainSummary  `json:"domainSummary"`
	Breaks          []Break        `json:"attentionBreakDetails"`
	TotalEvents     int            `json:"totalEvents"`
}

// IdleSeconds sums the part of every gap between consecutive
// timed events that exceeds the grace period.
func IdleSeconds(events []Event) int64 {
	var total int64
	var prev *Event
	for i := range events {
		ev := &events[i]
		if !ev.HasTime {
			continue
		}
		if prev != nil {
			if gap := secondsBetween(prev.Timestamp, ev.Timestamp); gap > idleGraceSeconds {
				total += gap - idleGraceSeconds
			}
		}
		prev = ev
	}
	return total
}

// Derive computes session metrics from raw events.
func Derive(raws []json.RawMessage) Derived {
	events := ParseEvents(raws)
	breaks := DetectBreaks(events)
	idleMinutes := math.Floor(float64(IdleSeconds(events)) / 60)

	stats := map[string]int{}
	var summary DomainSummary
	for _, ev := range events {
		if ev.Domain != "" {
			stats[ev.Domain]++
		}
		switch Classify(ev.Domain) {
		case Productive:
			summary.Productive++
		case Distracting:
			summary.Distracting++
		default:
			summary.Neutral++
		}
	}

	p := Penalty{
		Breaks: math.Min(float64(len(breaks)*breakPenaltyEach), breakPenaltyCap),
		Idle:   math.Min(idleMinutes*idlePenaltyPerMinute, idlePenaltyCap),
		Distracting: math.Min(
			float64(summary.Distracting*distractingPenalty),
			distractingPenaltyCap,
		),
	}
	p.Total = p.Breaks + p.Idle + p.Distracting

	if breaks == nil {
		breaks = []Break{}
	}
	return Derived{
		FocusScore:      math.Round(math.Max(0, maxScore-p.Total)),
		MaxScore:        maxScore,
		Penalty:         p,
		AttentionBreaks: len(breaks),
		IdleMinutes:     idleMinutes,
		DomainStats:     stats,
		DomainSummary:   summary,
		Breaks:          breaks,
		TotalEvents:     len(events),
	}
}

// Metrics converts the derived values into analyzer input. The
// raw events are carried along unchanged.
func (d Derived) Metrics(
	sessionID string, raws []json.RawMessage,
) focus.SessionMetrics {
	return focus.SessionMetrics{
		SessionID:       sessionID,
		FocusScore:      d.FocusScore,
		MaxScore:        d.MaxScore,
		AttentionBreaks: d.AttentionBreaks,
		IdleMinutes:     d.IdleMinutes,
		DomainStats:     d.DomainStats,
		Events:          slices.Clone(raws),
	}
}
