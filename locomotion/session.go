package locomotion

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Session is the live state of one agent following one target.
// It is created on engagement, mutated only by the owning agent's tick,
// and dropped on disengagement.
type Session struct {
	ID        uuid.UUID
	Target    Target
	StartTick int64

	// Anchor state. hasAnchor is true for the whole life of an engaged session.
	anchor          mgl64.Vec3
	hasAnchor       bool
	anchorKind      AnchorKind
	anchorTargetPos mgl64.Vec3 // target position when the anchor was computed
	anchorDeadline  int64

	// Progress tracking toward the current anchor
	lastAnchorDist   float64
	LastProgressTick int64

	// Gait
	Gait           GaitState
	StateLockUntil int64
	JumpReadyAt    int64
	Transitions    int   // committed gait transitions this session
	LastTransition int64 // tick of the last committed transition, -1 if none

	// Navigation pacing
	pathDeadline   int64
	lastPathAnchor mgl64.Vec3
	hasIssuedPath  bool

	// SideSign is +1 or -1, fixed at creation.
	SideSign float64
	Settled  bool
}

func newSession(target Target, tick int64, side float64) *Session {
	return &Session{
		ID:               uuid.New(),
		Target:           target,
		StartTick:        tick,
		LastProgressTick: tick,
		LastTransition:   -1,
		SideSign:         side,
		Gait:             GaitState{Mode: GaitWalk},
	}
}

// Anchor returns the current follow point. ok is false only before the first plan.
func (s *Session) Anchor() (mgl64.Vec3, bool) {
	return s.anchor, s.hasAnchor
}

// AnchorKind reports which candidate produced the current anchor.
func (s *Session) AnchorKind() AnchorKind {
	return s.anchorKind
}

// AnchorDeadline is the earliest tick at which the anchor may be recomputed.
func (s *Session) AnchorDeadline() int64 {
	return s.anchorDeadline
}

// PathDeadline is the earliest tick at which a new path request may be issued.
func (s *Session) PathDeadline() int64 {
	return s.pathDeadline
}

func (s *Session) setAnchor(p mgl64.Vec3, kind AnchorKind, targetPos mgl64.Vec3) {
	s.anchor = p
	s.hasAnchor = true
	s.anchorKind = kind
	s.anchorTargetPos = targetPos
}

func (s *Session) clearAnchor() {
	s.anchor = mgl64.Vec3{}
	s.hasAnchor = false
}
