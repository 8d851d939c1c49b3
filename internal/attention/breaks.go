package attention

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Break reasons.
const (
	ReasonRapidSwitch     = "Rapid tab switch"
	ReasonContextSwitches = "High context switching"
	ReasonNavigationLoop  = "Navigation loop detected"
	ReasonIdleSpike       = "Attention idle spike"
)

const (
	rapidSwitchSeconds = 5
	switchWindow       = 60 * time.Second
	switchWindowCount  = 5
	loopLength         = 5
	loopMaxDomains     = 2
	idleSpikeSeconds   = 120
)

// Break is one detected loss of attention.
type Break struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Reason      string    `json:"reason"`
	Domains     []string  `json:"domains,omitempty"`
	IdleSeconds int64     `json:"idle_seconds,omitempty"`
	Explanation string    `json:"explanation"`
}

// DetectBreaks applies every break rule and returns the breaks
// ordered by start time. Events without a usable timestamp are
// ignored.
func DetectBreaks(events []Event) []Break {
	timed := make([]Event, 0, len(events))
	var switches []Event
	for _, ev := range events {
		if !ev.HasTime {
			continue
		}
		timed = append(timed, ev)
		if ev.IsSwitch() {
			switches = append(switches, ev)
		}
	}

	d := &detector{}
	d.rapidSwitches(switches)
	d.contextSwitches(switches)
	d.navigationLoops(switches)
	d.idleSpikes(timed)

	slices.SortStableFunc(d.breaks, func(a, b Break) int {
		return a.StartTime.Compare(b.StartTime)
	})
	for i := range d.breaks {
		d.breaks[i].Explanation = explain(d.breaks[i])
	}
	return d.breaks
}

type detector struct {
	breaks []Break
}

// seen reports whether a break with the same reason and start
// was already recorded.
func (d *detector) seen(reason string, start time.Time) bool {
	return slices.ContainsFunc(d.breaks, func(b Break) bool {
		return b.Reason == reason && b.StartTime.Equal(start)
	})
}

func (d *detector) rapidSwitches(switches []Event) {
	for i := 1; i < len(switches); i++ {
		prev, cur := switches[i-1], switches[i]
		if secondsBetween(prev.Timestamp, cur.Timestamp) > rapidSwitchSeconds {
			continue
		}
		d.breaks = append(d.breaks, Break{
			StartTime: prev.Timestamp,
			EndTime:   cur.Timestamp,
			Reason:    ReasonRapidSwitch,
			Domains:   nonEmpty(prev.Domain, cur.Domain),
		})
	}
}

func (d *detector) contextSwitches(switches []Event) {
	for _, cur := range switches {
		windowStart := cur.Timestamp.Add(-switchWindow)
		var window []Event
		for _, ev := range switches {
			if !ev.Timestamp.Before(windowStart) &&
				!ev.Timestamp.After(cur.Timestamp) {
				window = append(window, ev)
			}
		}
		if len(window) < switchWindowCount {
			continue
		}
		start := window[0].Timestamp
		if d.seen(ReasonContextSwitches, start) {
			continue
		}
		domains := make([]string, 0, len(window))
		for _, ev := range window {
			domains = append(domains, ev.Domain)
		}
		d.breaks = append(d.breaks, Break{
			StartTime: start,
			EndTime:   cur.Timestamp,
			Reason:    ReasonContextSwitches,
			Domains:   uniqueNonEmpty(domains),
		})
	}
}

func (d *detector) navigationLoops(switches []Event) {
	for i := loopLength - 1; i < len(switches); i++ {
		span := switches[i-loopLength+1 : i+1]
		var domains []string
		for _, ev := range span {
			if ev.Domain != "" {
				domains = append(domains, ev.Domain)
			}
		}
		unique := uniqueNonEmpty(domains)
		if len(domains) != loopLength || len(unique) > loopMaxDomains {
			continue
		}
		start := span[0].Timestamp
		if d.seen(ReasonNavigationLoop, start) {
			continue
		}
		d.breaks = append(d.breaks, Break{
			StartTime: start,
			EndTime:   switches[i].Timestamp,
			Reason:    ReasonNavigationLoop,
			Domains:   unique,
		})
	}
}

func (d *detector) idleSpikes(events []Event) {
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		gap := secondsBetween(prev.Timestamp, cur.Timestamp)
		if gap <= idleSpikeSeconds || d.seen(ReasonIdleSpike, prev.Timestamp) {
			continue
		}
		d.breaks = append(d.breaks, Break{
			StartTime:   prev.Timestamp,
			EndTime:     cur.Timestamp,
			Reason:      ReasonIdleSpike,
			IdleSeconds: gap,
		})
	}
}

func explain(b Break) string {
	const prefix = "Between the detected time window, "
	switch b.Reason {
	case ReasonContextSwitches:
		return prefix + fmt.Sprintf(
			"frequent switching between %s caused loss of focus.",
			strings.Join(b.Domains, ", "))
	case ReasonNavigationLoop:
		return prefix + fmt.Sprintf(
			"repeated navigation between %s disrupted focus.",
			strings.Join(b.Domains, " and "))
	case ReasonIdleSpike:
		minutes := int64(math.Floor(float64(b.IdleSeconds)/60 + 0.5))
		return prefix + fmt.Sprintf(
			"an idle period of %d minutes indicated a loss of attention.",
			minutes)
	default:
		if len(b.Domains) == 0 {
			return prefix + "a rapid tab switch interrupted focus."
		}
		return prefix + fmt.Sprintf(
			"a rapid switch between %s interrupted focus.",
			strings.Join(b.Domains, " and "))
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// uniqueNonEmpty drops empty strings and duplicates, keeping
// first-seen order.
func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
