package locomotion

import "github.com/go-gl/mathgl/mgl64"

// NavigationBridge rate-limits path requests to the external navigator.
// At most one MoveTo is issued per recompute interval; between issues only the
// speed of the active path is updated.
type NavigationBridge struct {
	params   NavParams
	observer Observer
}

// NewNavigationBridge creates a bridge. A nil observer discards events.
func NewNavigationBridge(params NavParams, observer Observer) *NavigationBridge {
	if observer == nil {
		observer = nopObserver{}
	}
	return &NavigationBridge{params: params, observer: observer}
}

// Refresh issues "move to anchor at speed" when the recompute deadline has elapsed and
// either there is no usable path or the anchor has moved since the last issue.
// Returns true if a new path request was made.
func (b *NavigationBridge) Refresh(ctx *Context, s *Session, anchor mgl64.Vec3, speed float64) bool {
	if ctx.Tick < s.pathDeadline || !b.needsPath(ctx, s, anchor) {
		ctx.Nav.SetSpeed(speed)
		return false
	}

	// The deadline advances even on failure so an unreachable anchor is retried
	// at the next interval rather than every tick.
	s.pathDeadline = ctx.Tick + b.params.RecomputeTicks

	if !ctx.Nav.MoveTo(anchor, speed) {
		b.observer.Observe(Event{
			Type:     EventPathRejected,
			Tick:     ctx.Tick,
			AgentID:  ctx.Body.ID(),
			TargetID: s.Target.ID(),
			Session:  s.ID,
			Point:    anchor,
			Speed:    speed,
		})
		return false
	}

	s.lastPathAnchor = anchor
	s.hasIssuedPath = true
	b.observer.Observe(Event{
		Type:     EventPath,
		Tick:     ctx.Tick,
		AgentID:  ctx.Body.ID(),
		TargetID: s.Target.ID(),
		Session:  s.ID,
		Point:    anchor,
		Speed:    speed,
	})
	return true
}

func (b *NavigationBridge) needsPath(ctx *Context, s *Session, anchor mgl64.Vec3) bool {
	path := ctx.Nav.CurrentPath()
	if path == nil || path.IsDone() || !s.hasIssuedPath {
		return true
	}
	eps := b.params.AnchorEpsilon
	return distSq(anchor, s.lastPathAnchor) > eps*eps
}

// CanReach creates a path to point without committing to it.
func (b *NavigationBridge) CanReach(ctx *Context, point mgl64.Vec3) bool {
	path := ctx.Nav.CreatePath(point)
	return path != nil && path.CanReach()
}

// Stop halts navigation and forgets the last issued anchor. The recompute deadline
// is cleared too, so the next Refresh issues a path immediately.
func (b *NavigationBridge) Stop(ctx *Context, s *Session) {
	ctx.Nav.Stop()
	s.hasIssuedPath = false
	s.pathDeadline = 0
}
