// Package telemetry provides follow-quality tracking, bookmarking, and snapshots.
package telemetry

import (
	"fmt"

	"github.com/pthm-cable/companion/locomotion"
)

// EventRecord is the flat CSV form of a controller event.
type EventRecord struct {
	Tick     int64   `csv:"tick"`
	Type     string  `csv:"type"`
	AgentID  uint64  `csv:"agent"`
	TargetID uint64  `csv:"target"`
	Session  string  `csv:"session"`
	Detail   string  `csv:"detail"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Z        float64 `csv:"z"`
}

// NewEventRecord flattens e for CSV output.
func NewEventRecord(e locomotion.Event) EventRecord {
	return EventRecord{
		Tick:     e.Tick,
		Type:     e.Type.String(),
		AgentID:  e.AgentID,
		TargetID: e.TargetID,
		Session:  e.Session.String(),
		Detail:   eventDetail(e),
		X:        e.Point.X(),
		Y:        e.Point.Y(),
		Z:        e.Point.Z(),
	}
}

func eventDetail(e locomotion.Event) string {
	switch e.Type {
	case locomotion.EventGait:
		return fmt.Sprintf("%s->%s", e.From, e.To)
	case locomotion.EventAnchor:
		return e.Anchor.String()
	case locomotion.EventDisengage:
		return e.Reason.String()
	case locomotion.EventPath:
		return fmt.Sprintf("speed=%.3f", e.Speed)
	default:
		return ""
	}
}

// EventLog keeps the most recent controller events in a ring buffer.
type EventLog struct {
	events []locomotion.Event
	next   int
	full   bool
}

// NewEventLog creates a log holding up to size events.
func NewEventLog(size int) *EventLog {
	if size < 1 {
		size = 1
	}
	return &EventLog{events: make([]locomotion.Event, size)}
}

// Observe appends e, overwriting the oldest entry when full.
func (l *EventLog) Observe(e locomotion.Event) {
	l.events[l.next] = e
	l.next = (l.next + 1) % len(l.events)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns up to n events, newest first.
func (l *EventLog) Recent(n int) []locomotion.Event {
	count := l.Len()
	if n > count {
		n = count
	}
	out := make([]locomotion.Event, 0, n)
	idx := l.next
	for i := 0; i < n; i++ {
		idx = (idx - 1 + len(l.events)) % len(l.events)
		out = append(out, l.events[idx])
	}
	return out
}

// Len returns the number of stored events.
func (l *EventLog) Len() int {
	if l.full {
		return len(l.events)
	}
	return l.next
}
