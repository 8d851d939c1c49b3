// Package attention derives session metrics from the raw browser
// events recorded by the tracking extension: attention breaks,
// idle time, per-domain visit counts and a focus score.
package attention

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Event is the subset of a raw event record that derivation
// reads. Unknown fields are ignored.
type Event struct {
	Type      string
	Domain    string
	Timestamp time.Time
	// HasTime is false when the timestamp was missing or
	// unparseable; such events are skipped by time-based rules.
	HasTime bool
}

// IsSwitch reports whether the event moved the user to another
// tab or page.
func (e Event) IsSwitch() bool {
	t := strings.ToLower(e.Type)
	return t == "tab_switch" || t == "navigation"
}

// ParseEvent reads one raw event. Records that are not JSON
// objects yield ok=false.
func ParseEvent(raw json.RawMessage) (Event, bool) {
	if !gjson.ValidBytes(raw) {
		return Event{}, false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Event{}, false
	}

	ev := Event{
		Type:   root.Get("event_type").String(),
		Domain: root.Get("domain").String(),
	}
	if ts := root.Get("timestamp"); ts.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339Nano, ts.Str); err == nil {
			ev.Timestamp = t
			ev.HasTime = true
		}
	}
	return ev, true
}

// ParseEvents reads every raw event, dropping records that are
// not JSON objects. Order is preserved.
func ParseEvents(raws []json.RawMessage) []Event {
	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		if ev, ok := ParseEvent(raw); ok {
			events = append(events, ev)
		}
	}
	return events
}

// secondsBetween is the whole number of seconds from a to b,
// rounded down.
func secondsBetween(a, b time.Time) int64 {
	d := b.Sub(a)
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}
