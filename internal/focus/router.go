package focus

import (
	"fmt"
	"strings"
)

// Fixed replies that do not depend on session data.
const (
	NoSessionAnswer    = "No session data available. Please analyze a session first."
	NoSessionReasoning = "Session context not found"

	menuAnswer = "I can help you understand:\n" +
		"• Focus score and performance\n" +
		"• Attention breaks and distractions\n" +
		"• Idle time patterns\n" +
		"• Top distracting domains\n" +
		"• Suggestions for improvement\n\n" +
		"Try asking about any of these topics!"
)

// Intent names, reported with every answer.
const (
	IntentNoSession = "no_session"
	IntentWhyLow    = "why_focus_low"
	IntentDomains   = "domains"
	IntentIdle      = "idle"
	IntentBreaks    = "breaks"
	IntentImprove   = "improve"
	IntentScore     = "score"
	IntentDefault   = "default"
)

// rule pairs a keyword predicate with the handler that builds
// the reply. Rules are evaluated in slice order; the first
// predicate that matches wins.
type rule struct {
	intent string
	match  func(q string) bool
	answer func(sc *SessionContext) Answer
}

var rules = []rule{
	{IntentWhyLow, matchWhyLow, answerWhyLow},
	{IntentDomains, containsAny("youtube", "domain", "website", "site", "visit"), answerDomains},
	{IntentIdle, containsAny("idle", "inactive", "away", "pause"), answerIdle},
	{IntentBreaks, containsAny("break", "distraction", "interrupt", "switch"), answerBreaks},
	{IntentImprove, containsAny("improve", "better", "suggest", "recommend", "help", "advice"), answerImprove},
	{IntentScore, containsAny("score", "performance", "how well", "rating"), answerScore},
}

// Route answers question against the stored session. A nil
// context means no session was analyzed under that id; the
// question text is not inspected in that case.
func Route(sc *SessionContext, question string) Answer {
	if sc == nil {
		return Answer{
			Answer:    NoSessionAnswer,
			Reasoning: NoSessionReasoning,
			Intent:    IntentNoSession,
		}
	}

	q := strings.ToLower(question)
	for _, r := range rules {
		if r.match(q) {
			a := r.answer(sc)
			a.Intent = r.intent
			return a
		}
	}
	return Answer{
		Answer:    menuAnswer,
		Reasoning: "Default response for unrecognized question pattern",
		Intent:    IntentDefault,
	}
}

func containsAny(words ...string) func(string) bool {
	return func(q string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
}

var mentionsNegative = containsAny("low", "bad", "poor")

func matchWhyLow(q string) bool {
	return strings.Contains(q, "focus") && mentionsNegative(q)
}

func answerWhyLow(sc *SessionContext) Answer {
	var reasons []string
	if sc.AttentionBreaks > moderateBreaks {
		reasons = append(reasons,
			fmt.Sprintf("%d attention breaks", sc.AttentionBreaks))
	}
	if sc.IdleMinutes > moderateIdleMinutes {
		reasons = append(reasons,
			fmt.Sprintf("%.1f minutes of idle time", sc.IdleMinutes))
	}
	if top, ok := TopDomain(sc.DomainStats); ok {
		reasons = append(reasons, "heavy usage of "+top)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "minor distractions across the session")
	}

	return Answer{
		Answer: fmt.Sprintf(
			"Your focus score was low (%.1f/%.1f) because of %s.",
			sc.FocusScore, sc.MaxScore, strings.Join(reasons, ", "),
		),
		Reasoning: "Derived from attention breaks, idle time, and domain distribution",
	}
}

// DomainShare returns visits as a percentage of total; a zero
// total yields 0.
func DomainShare(visits, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(visits) / float64(total) * 100
}

func answerDomains(sc *SessionContext) Answer {
	if len(sc.DomainStats) == 0 {
		return Answer{
			Answer:    "No domain statistics available for this session.",
			Reasoning: "Domain stats missing",
		}
	}

	total := 0
	for _, n := range sc.DomainStats {
		total += n
	}

	lines := []string{"Top distracting domains:\n"}
	for _, dc := range RankDomains(sc.DomainStats, topDomainLimit) {
		lines = append(lines, fmt.Sprintf(
			"• %s: %d visits (%.1f%%)",
			dc.Domain, dc.Visits, DomainShare(dc.Visits, total),
		))
	}
	return Answer{
		Answer: strings.Join(lines, "\n"),
		Reasoning: fmt.Sprintf(
			"Analyzed %d domains from session data", len(sc.DomainStats),
		),
	}
}

func answerIdle(sc *SessionContext) Answer {
	var advice string
	switch {
	case sc.IdleMinutes > highIdleMinutes:
		advice = "You had significant idle time. Try setting timers or using focus apps to stay engaged."
	case sc.IdleMinutes > moderateIdleMinutes:
		advice = "Moderate idle time detected. Consider shorter work intervals to maintain focus."
	default:
		advice = "Your idle time is within acceptable limits. Good job staying active!"
	}
	return Answer{
		Answer: fmt.Sprintf("Idle time: %.1f minutes. %s", sc.IdleMinutes, advice),
		Reasoning: fmt.Sprintf(
			"Calculated from session idleMinutes: %.1f", sc.IdleMinutes,
		),
	}
}

func answerBreaks(sc *SessionContext) Answer {
	var advice string
	switch {
	case sc.AttentionBreaks > highBreaks:
		advice = "You had many attention breaks. Try using website blockers or focus timers."
	case sc.AttentionBreaks > moderateBreaks:
		advice = "Moderate number of breaks. Consider planning focused work blocks."
	default:
		advice = "Good focus! You maintained attention well during this session."
	}
	return Answer{
		Answer: fmt.Sprintf(
			"Attention breaks: %d. Focus score: %.1f/%.1f. %s",
			sc.AttentionBreaks, sc.FocusScore, sc.MaxScore, advice,
		),
		Reasoning: fmt.Sprintf(
			"Analyzed %d breaks from session data", sc.AttentionBreaks,
		),
	}
}

func answerImprove(sc *SessionContext) Answer {
	pct := ScorePercent(sc.FocusScore, sc.MaxScore)

	var suggestions []string
	if pct < moderateScorePercent {
		suggestions = append(suggestions,
			"• Work on reducing distractions to improve focus score")
	}
	if sc.AttentionBreaks > moderateBreaks {
		suggestions = append(suggestions,
			"• Use website blockers for distracting sites",
			"• Try the Pomodoro technique (25 min focus, 5 min break)")
	}
	if sc.IdleMinutes > moderateIdleMinutes {
		suggestions = append(suggestions,
			"• Set regular timers to stay engaged",
			"• Break work into smaller, manageable chunks")
	}
	if top, ok := TopDomain(sc.DomainStats); ok {
		suggestions = append(suggestions, fmt.Sprintf(
			"• Consider blocking or limiting %s during focus time", top,
		))
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions,
			"• Keep up the good work! Your focus metrics look healthy.")
	}

	return Answer{
		Answer: "Suggestions to improve focus:\n" +
			strings.Join(suggestions, "\n"),
		Reasoning: fmt.Sprintf(
			"Generated from score: %.1f%%, breaks: %d, idle: %.1fmin",
			pct, sc.AttentionBreaks, sc.IdleMinutes,
		),
	}
}

// Rating maps a score percentage to its tier name.
func Rating(pct float64) string {
	switch {
	case pct >= 90:
		return "Excellent"
	case pct >= moderateScorePercent:
		return "Good"
	case pct >= lowScorePercent:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

func answerScore(sc *SessionContext) Answer {
	pct := ScorePercent(sc.FocusScore, sc.MaxScore)
	return Answer{
		Answer: fmt.Sprintf(
			"Focus Score: %.1f/%.1f (%.1f%%) - %s",
			sc.FocusScore, sc.MaxScore, pct, Rating(pct),
		),
		Reasoning: "Calculated percentage from focusScore and maxScore",
	}
}
