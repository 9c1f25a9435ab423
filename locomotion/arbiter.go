package locomotion

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// TargetSource lists the actors an agent may follow.
type TargetSource interface {
	Targets() []Target
}

// TargetList is a fixed TargetSource.
type TargetList []Target

// Targets returns the list.
func (l TargetList) Targets() []Target { return l }

// ArbiterOptions configures a FollowArbiter.
type ArbiterOptions struct {
	Params   Params
	Targets  TargetSource
	Logger   *slog.Logger // nil uses slog.Default()
	Observer Observer     // nil discards events
	Seed     int64        // drives the side bias when Anchor.SideBias is 0
}

// FollowArbiter decides whether an agent follows a target and drives the follow each tick.
// One arbiter serves exactly one agent; it owns that agent's session.
type FollowArbiter struct {
	params   Params
	targets  TargetSource
	logger   *slog.Logger
	observer Observer
	rng      *rand.Rand

	bridge   *NavigationBridge
	planner  *AnchorPlanner
	gait     *GaitController
	safety   *SafetyProbe
	rotation *RotationSmoother

	assigned Target
	session  *Session
	side     float64 // drawn lazily, then fixed for the arbiter's lifetime
}

// NewFollowArbiter creates an arbiter and its components.
func NewFollowArbiter(opts ArbiterOptions) *FollowArbiter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	targets := opts.Targets
	if targets == nil {
		targets = TargetList(nil)
	}
	p := opts.Params
	bridge := NewNavigationBridge(p.Nav, observer)
	return &FollowArbiter{
		params:   p,
		targets:  targets,
		logger:   logger,
		observer: observer,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		bridge:   bridge,
		planner:  NewAnchorPlanner(p.Anchor, p.Follow, bridge, observer),
		gait:     NewGaitController(p.Gait),
		safety:   NewSafetyProbe(p.Safety),
		rotation: NewRotationSmoother(p.Rotation),
	}
}

// Name implements Behavior.
func (a *FollowArbiter) Name() string { return "follow" }

// Session returns the active session or nil.
func (a *FollowArbiter) Session() *Session { return a.session }

// Params returns the arbiter's tuning.
func (a *FollowArbiter) Params() Params { return a.params }

// SetParams replaces the controller parameters. The live session and the side sign are kept.
func (a *FollowArbiter) SetParams(p Params) {
	a.params = p
	a.bridge = NewNavigationBridge(p.Nav, a.observer)
	a.planner = NewAnchorPlanner(p.Anchor, p.Follow, a.bridge, a.observer)
	a.gait = NewGaitController(p.Gait)
	a.safety = NewSafetyProbe(p.Safety)
	a.rotation = NewRotationSmoother(p.Rotation)
}

// Assign sets an explicit target. A nil target restores nearest-eligible selection.
// Assigning a different target while engaged ends the current session.
func (a *FollowArbiter) Assign(ctx *Context, t Target) {
	a.assigned = t
	if a.session != nil && t != nil && a.session.Target.ID() != t.ID() {
		a.disengage(ctx, ReasonReassigned)
	}
}

// Assigned returns the explicitly assigned target, if any.
func (a *FollowArbiter) Assigned() Target { return a.assigned }

// TryEngage reports whether candidate is eligible: valid, within the engage radius,
// and not already settled next to the agent.
func (a *FollowArbiter) TryEngage(ctx *Context, candidate Target) bool {
	if !validTarget(candidate) {
		return false
	}
	d2 := distSq(ctx.Body.Position(), candidate.Position())
	if d2 > a.params.Follow.EngageRadius*a.params.Follow.EngageRadius {
		return false
	}
	return !a.isSettled(ctx, candidate)
}

// SelectTarget returns the assigned target if it is eligible, else the nearest eligible
// target within the engage radius, else nil.
func (a *FollowArbiter) SelectTarget(ctx *Context) Target {
	if a.assigned != nil && a.TryEngage(ctx, a.assigned) {
		return a.assigned
	}
	pos := ctx.Body.Position()
	var best Target
	bestD2 := math.Inf(1)
	for _, t := range a.targets.Targets() {
		if !a.TryEngage(ctx, t) {
			continue
		}
		if d2 := distSq(pos, t.Position()); d2 < bestD2 {
			best, bestD2 = t, d2
		}
	}
	return best
}

// CanActivate implements Behavior.
func (a *FollowArbiter) CanActivate(ctx *Context) bool {
	return a.SelectTarget(ctx) != nil
}

// ShouldContinue reports whether the current session should be kept.
// The continue radius is wider than the engage radius so targets hovering at the
// boundary do not flicker in and out.
func (a *FollowArbiter) ShouldContinue(ctx *Context) bool {
	return a.continueReason(ctx) == ReasonNone
}

func (a *FollowArbiter) continueReason(ctx *Context) DisengageReason {
	if a.session == nil {
		return ReasonTargetInvalid
	}
	t := a.session.Target
	if !validTarget(t) {
		return ReasonTargetInvalid
	}
	r := a.params.Follow.ContinueRadius
	if distSq(ctx.Body.Position(), t.Position()) > r*r {
		return ReasonOutOfRange
	}
	return ReasonNone
}

// Start engages the selected target and plans the first anchor.
// Returns false if there is nothing eligible.
func (a *FollowArbiter) Start(ctx *Context) bool {
	t := a.SelectTarget(ctx)
	if t == nil {
		return false
	}
	if a.session != nil {
		a.disengage(ctx, ReasonReassigned)
	}
	s := newSession(t, ctx.Tick, a.sideSign())
	a.session = s
	a.planner.Refresh(ctx, s)

	a.logger.Debug("follow engaged",
		"agent", ctx.Body.ID(),
		"target", t.ID(),
		"session", s.ID.String(),
		"side", s.SideSign,
	)
	a.observer.Observe(Event{Type: EventEngage, Tick: ctx.Tick, AgentID: ctx.Body.ID(), TargetID: t.ID(), Session: s.ID})
	return true
}

// Stop ends the session, halting navigation in the same tick.
func (a *FollowArbiter) Stop(ctx *Context) {
	reason := ReasonPreempted
	if a.session != nil {
		if r := a.continueReason(ctx); r != ReasonNone {
			reason = r
		}
	}
	a.disengage(ctx, reason)
}

func (a *FollowArbiter) disengage(ctx *Context, reason DisengageReason) {
	s := a.session
	if s == nil {
		return
	}
	a.bridge.Stop(ctx, s)
	s.clearAnchor()
	a.session = nil

	var targetID uint64
	if s.Target != nil {
		targetID = s.Target.ID()
	}
	a.logger.Debug("follow disengaged",
		"agent", ctx.Body.ID(),
		"target", targetID,
		"session", s.ID.String(),
		"reason", reason.String(),
		"ticks", ctx.Tick-s.StartTick,
	)
	a.observer.Observe(Event{
		Type:     EventDisengage,
		Tick:     ctx.Tick,
		AgentID:  ctx.Body.ID(),
		TargetID: targetID,
		Session:  s.ID,
		Reason:   reason,
	})
}

// Tick runs one follow step. It does nothing without an active session.
func (a *FollowArbiter) Tick(ctx *Context) {
	s := a.session
	if s == nil {
		return
	}
	if reason := a.continueReason(ctx); reason != ReasonNone {
		a.disengage(ctx, reason)
		return
	}

	t := s.Target
	if a.isSettled(ctx, t) {
		a.tickSettled(ctx, s)
		return
	}
	if s.Settled {
		s.Settled = false
		a.observer.Observe(Event{Type: EventResume, Tick: ctx.Tick, AgentID: ctx.Body.ID(), TargetID: t.ID(), Session: s.ID})
	}

	a.planner.Refresh(ctx, s)
	anchor, _ := s.Anchor()
	pos := ctx.Body.Position()

	anchorD2 := distSq(pos, anchor)
	a.planner.TrackProgress(s, math.Sqrt(anchorD2), ctx.Tick)

	from := s.Gait.Mode
	if a.gait.Update(s, ctx.Tick, anchorD2, t.IsSprinting()) {
		a.logger.Debug("gait transition",
			"agent", ctx.Body.ID(),
			"from", from.String(),
			"to", s.Gait.Mode.String(),
			"tick", ctx.Tick,
		)
		a.observer.Observe(Event{
			Type: EventGait, Tick: ctx.Tick, AgentID: ctx.Body.ID(), TargetID: t.ID(), Session: s.ID,
			From: from, To: s.Gait.Mode,
		})
	}

	desired := a.gait.DesiredSpeed(math.Sqrt(anchorD2), s.Gait.Mode)
	risk := a.probe(ctx, s, pos, anchor)
	switch risk {
	case RiskCaution:
		desired *= a.params.Safety.CautionSpeedScale
	case RiskDanger:
		desired = 0
	}
	s.Gait.Speed = a.gait.Smooth(s.Gait.Speed, desired, s.Gait.Mode)

	if risk == RiskDanger {
		// Hold position this tick. The path is still requested at zero speed so the
		// next probe follows the navigator's waypoint instead of the straight line.
		v := ctx.Body.Velocity()
		ctx.Body.SetVelocity(mgl64.Vec3{0, v.Y(), 0})
		a.bridge.Refresh(ctx, s, anchor, 0)
		a.observer.Observe(Event{Type: EventDanger, Tick: ctx.Tick, AgentID: ctx.Body.ID(), TargetID: t.ID(), Session: s.ID, Point: anchor})
	} else {
		a.bridge.Refresh(ctx, s, anchor, s.Gait.Speed)
		if a.gait.ShouldJump(ctx, s, anchorD2) {
			ctx.Body.TriggerJump()
			a.gait.MarkJumped(s, ctx.Tick)
			a.observer.Observe(Event{Type: EventJump, Tick: ctx.Tick, AgentID: ctx.Body.ID(), TargetID: t.ID(), Session: s.ID, Point: pos})
		}
	}

	a.rotation.Face(ctx, t.Position())
}

func (a *FollowArbiter) tickSettled(ctx *Context, s *Session) {
	t := s.Target
	if !s.Settled {
		s.Settled = true
		a.bridge.Stop(ctx, s)
		a.observer.Observe(Event{Type: EventSettle, Tick: ctx.Tick, AgentID: ctx.Body.ID(), TargetID: t.ID(), Session: s.ID})
	}
	s.Gait.Speed = a.gait.Smooth(s.Gait.Speed, 0, s.Gait.Mode)
	v := ctx.Body.Velocity()
	h := flatten(v)
	if l := h.Len(); l > s.Gait.Speed {
		if s.Gait.Speed <= 0 || l == 0 {
			h = mgl64.Vec3{}
		} else {
			h = h.Mul(s.Gait.Speed / l)
		}
		ctx.Body.SetVelocity(mgl64.Vec3{h.X(), v.Y(), h.Z()})
	}
	a.rotation.LookAt(ctx, t.Position())
}

// probe classifies the terrain toward the next waypoint, or the anchor when no path is active.
func (a *FollowArbiter) probe(ctx *Context, s *Session, pos, anchor mgl64.Vec3) Risk {
	if !a.params.Safety.Enabled {
		return RiskSafe
	}
	toward := anchor
	if path := ctx.Nav.CurrentPath(); path != nil && !path.IsDone() {
		if wp, ok := path.NextWaypoint(); ok {
			toward = wp
		}
	}
	return a.safety.Classify(ctx, pos, toward)
}

// isSettled reports whether the agent is already close to a still, visible target.
// Stillness uses full 3D speed so a falling or jumping target is not idle.
func (a *FollowArbiter) isSettled(ctx *Context, t Target) bool {
	f := a.params.Follow
	pos := ctx.Body.Position()
	if distSq(pos, t.Position()) >= f.StopDistance*f.StopDistance {
		return false
	}
	if t.Velocity().Len() >= f.IdleTargetSpeed {
		return false
	}
	agentEye := pos.Add(mgl64.Vec3{0, f.AgentShoulderHeight, 0})
	targetEye := t.Position().Add(mgl64.Vec3{0, f.TargetEyeHeight, 0})
	return ctx.World.LineOfSightClear(agentEye, targetEye)
}

func (a *FollowArbiter) sideSign() float64 {
	switch {
	case a.params.Anchor.SideBias > 0:
		return 1
	case a.params.Anchor.SideBias < 0:
		return -1
	}
	if a.side == 0 {
		a.side = 1
		if a.rng.Intn(2) == 0 {
			a.side = -1
		}
	}
	return a.side
}

func validTarget(t Target) bool {
	return t != nil && t.IsAlive() && !t.IsSpectator()
}
