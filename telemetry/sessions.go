package telemetry

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/companion/locomotion"
)

// SessionStats tracks per-session statistics from engagement to disengagement.
type SessionStats struct {
	ID        string `csv:"session" json:"id"`
	AgentID   uint64 `csv:"agent" json:"agent"`
	TargetID  uint64 `csv:"target" json:"target"`
	StartTick int64  `csv:"start_tick" json:"start_tick"`
	EndTick   int64  `csv:"end_tick" json:"end_tick"`
	Reason    string `csv:"reason" json:"reason,omitempty"`

	GaitChanges   int `csv:"gait_changes" json:"gait_changes"`
	Jumps         int `csv:"jumps" json:"jumps"`
	Settles       int `csv:"settles" json:"settles"`
	Anchors       int `csv:"anchors" json:"anchors"`
	Fallbacks     int `csv:"fallbacks" json:"fallbacks"`
	Paths         int `csv:"paths" json:"paths"`
	PathsRejected int `csv:"paths_rejected" json:"paths_rejected"`
	DangerTicks   int `csv:"danger_ticks" json:"danger_ticks"`
}

// DurationSec returns the session length in simulation seconds.
func (s *SessionStats) DurationSec(dt float64) float64 {
	return float64(s.EndTick-s.StartTick) * dt
}

// SessionTracker manages per-session statistics.
// Finished sessions are queued until drained by the caller.
type SessionTracker struct {
	live     map[uuid.UUID]*SessionStats
	finished []*SessionStats
}

var _ locomotion.Observer = (*SessionTracker)(nil)

// NewSessionTracker creates a new session tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		live: make(map[uuid.UUID]*SessionStats),
	}
}

// Observe updates the stats of the session that emitted e.
func (st *SessionTracker) Observe(e locomotion.Event) {
	if e.Type == locomotion.EventEngage {
		st.live[e.Session] = &SessionStats{
			ID:        e.Session.String(),
			AgentID:   e.AgentID,
			TargetID:  e.TargetID,
			StartTick: e.Tick,
			EndTick:   e.Tick,
		}
		return
	}

	s := st.live[e.Session]
	if s == nil {
		return
	}
	s.EndTick = e.Tick

	switch e.Type {
	case locomotion.EventDisengage:
		s.Reason = e.Reason.String()
		delete(st.live, e.Session)
		st.finished = append(st.finished, s)
	case locomotion.EventGait:
		s.GaitChanges++
	case locomotion.EventJump:
		s.Jumps++
	case locomotion.EventSettle:
		s.Settles++
	case locomotion.EventAnchor:
		s.Anchors++
		if e.Anchor == locomotion.AnchorFallback {
			s.Fallbacks++
		}
	case locomotion.EventPath:
		s.Paths++
	case locomotion.EventPathRejected:
		s.PathsRejected++
	case locomotion.EventDanger:
		s.DangerTicks++
	}
}

// Get returns the stats for a live session, or nil if not found.
func (st *SessionTracker) Get(id uuid.UUID) *SessionStats {
	return st.live[id]
}

// Live returns all live sessions (for snapshots).
func (st *SessionTracker) Live() map[uuid.UUID]*SessionStats {
	return st.live
}

// Count returns the number of live sessions.
func (st *SessionTracker) Count() int {
	return len(st.live)
}

// DrainFinished returns the sessions that ended since the last call.
func (st *SessionTracker) DrainFinished() []*SessionStats {
	out := st.finished
	st.finished = nil
	return out
}
