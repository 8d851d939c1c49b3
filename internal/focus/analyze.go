package focus

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Thresholds for issue detection. Every comparison is strict.
const (
	lowScorePercent      = 50
	moderateScorePercent = 75
	highBreaks           = 10
	moderateBreaks       = 5
	highIdleMinutes      = 30
	moderateIdleMinutes  = 15
)

// Primary issue descriptions, in priority order.
const (
	PrimaryLowFocus      = "Low focus score"
	PrimaryHighBreaks    = "Too many attention breaks"
	PrimaryHighIdle      = "Excessive idle time"
	PrimaryModerateFocus = "Moderate focus performance"
	PrimaryGood          = "Good focus performance"
)

var primaryPriority = []struct {
	issue Issue
	label string
}{
	{IssueLowFocus, PrimaryLowFocus},
	{IssueHighBreaks, PrimaryHighBreaks},
	{IssueHighIdle, PrimaryHighIdle},
	{IssueModerateFocus, PrimaryModerateFocus},
}

// ScorePercent returns score as a percentage of maxScore. A
// non-positive maxScore yields 0 rather than dividing by zero.
func ScorePercent(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return score / maxScore * 100
}

// DetectIssues runs the threshold checks in order. Each metric
// contributes at most one label: the moderate check only runs
// when the high check failed.
func DetectIssues(m SessionMetrics) []Issue {
	issues := []Issue{}
	pct := ScorePercent(m.FocusScore, m.MaxScore)

	if pct < lowScorePercent {
		issues = append(issues, IssueLowFocus)
	} else if pct < moderateScorePercent {
		issues = append(issues, IssueModerateFocus)
	}

	if m.AttentionBreaks > highBreaks {
		issues = append(issues, IssueHighBreaks)
	} else if m.AttentionBreaks > moderateBreaks {
		issues = append(issues, IssueModerateBreaks)
	}

	if m.IdleMinutes > highIdleMinutes {
		issues = append(issues, IssueHighIdle)
	} else if m.IdleMinutes > moderateIdleMinutes {
		issues = append(issues, IssueModerateIdle)
	}
	return issues
}

// PrimaryIssue picks the first issue in priority order.
// Moderate break and idle labels are not selectable and fall
// through to PrimaryGood.
func PrimaryIssue(issues []Issue) string {
	for _, p := range primaryPriority {
		if slices.Contains(issues, p.issue) {
			return p.label
		}
	}
	return PrimaryGood
}

// RankDomains orders domains by visit count descending. Ties
// are broken by domain name so the result does not depend on
// map iteration order. limit <= 0 returns every domain.
func RankDomains(stats map[string]int, limit int) []DomainCount {
	ranked := make([]DomainCount, 0, len(stats))
	for d, n := range stats {
		ranked = append(ranked, DomainCount{Domain: d, Visits: n})
	}
	slices.SortFunc(ranked, func(a, b DomainCount) int {
		if c := cmp.Compare(b.Visits, a.Visits); c != 0 {
			return c
		}
		return strings.Compare(a.Domain, b.Domain)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// TopDomain returns the most visited domain, or false when
// there are no domain stats.
func TopDomain(stats map[string]int) (string, bool) {
	ranked := RankDomains(stats, 1)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Domain, true
}

// Analyze classifies a session and renders its summary.
func Analyze(m SessionMetrics) Analysis {
	issues := DetectIssues(m)
	return Analysis{
		Summary:      Summary(m),
		PrimaryIssue: PrimaryIssue(issues),
		Status:       StatusAnalyzed,
		Issues:       issues,
	}
}

// Summary renders the one-line diagnostic for a session.
func Summary(m SessionMetrics) string {
	top := RankDomains(m.DomainStats, topDomainLimit)
	names := make([]string, 0, summaryDomainLimit)
	for _, dc := range top {
		if len(names) == summaryDomainLimit {
			break
		}
		names = append(names, dc.Domain)
	}
	domains := notAvailable
	if len(names) > 0 {
		domains = strings.Join(names, ", ")
	}

	return fmt.Sprintf(
		"Focus Score: %.1f/%.1f (%.1f%%). "+
			"Attention breaks: %d. "+
			"Idle time: %.1f minutes. "+
			"Top domains: %s.",
		m.FocusScore, m.MaxScore,
		ScorePercent(m.FocusScore, m.MaxScore),
		m.AttentionBreaks, m.IdleMinutes, domains,
	)
}
