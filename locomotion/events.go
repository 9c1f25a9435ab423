package locomotion

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// EventType identifies controller events.
type EventType uint8

const (
	EventEngage EventType = iota
	EventDisengage
	EventSettle
	EventResume
	EventAnchor
	EventGait
	EventJump
	EventPath
	EventPathRejected
	EventDanger
)

func (e EventType) String() string {
	switch e {
	case EventEngage:
		return "engage"
	case EventDisengage:
		return "disengage"
	case EventSettle:
		return "settle"
	case EventResume:
		return "resume"
	case EventAnchor:
		return "anchor"
	case EventGait:
		return "gait"
	case EventJump:
		return "jump"
	case EventPath:
		return "path"
	case EventPathRejected:
		return "path_rejected"
	case EventDanger:
		return "danger"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(e))
	}
}

// DisengageReason explains why a session ended.
type DisengageReason uint8

const (
	ReasonNone DisengageReason = iota
	ReasonTargetInvalid
	ReasonOutOfRange
	ReasonReassigned
	ReasonPreempted
)

func (r DisengageReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTargetInvalid:
		return "target_invalid"
	case ReasonOutOfRange:
		return "out_of_range"
	case ReasonReassigned:
		return "reassigned"
	case ReasonPreempted:
		return "preempted"
	default:
		return fmt.Sprintf("DisengageReason(%d)", uint8(r))
	}
}

// Event is a single observable controller decision.
type Event struct {
	Type     EventType
	Tick     int64
	AgentID  uint64
	TargetID uint64
	Session  uuid.UUID

	// Optional fields depending on event type
	From   Gait            // gait events
	To     Gait            // gait events
	Point  mgl64.Vec3      // anchor, path and jump events
	Anchor AnchorKind      // anchor events
	Speed  float64         // path events
	Reason DisengageReason // disengage events
}

// Observer receives controller events. Implementations must not retain the agent's Context.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// Observers fans an event out to every observer in order.
type Observers []Observer

// Observe calls Observe on each observer.
func (o Observers) Observe(e Event) {
	for _, obs := range o {
		obs.Observe(e)
	}
}
