package locomotion

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AnchorKind identifies which candidate produced a follow anchor.
type AnchorKind uint8

const (
	AnchorBehindSide AnchorKind = iota
	AnchorBehind
	AnchorDirect
	// AnchorFallback is the target position used when no candidate validated.
	AnchorFallback
)

func (k AnchorKind) String() string {
	switch k {
	case AnchorBehindSide:
		return "behind-side"
	case AnchorBehind:
		return "behind"
	case AnchorDirect:
		return "direct"
	case AnchorFallback:
		return "fallback"
	default:
		return fmt.Sprintf("AnchorKind(%d)", uint8(k))
	}
}

// Anchor is a planned follow point.
type Anchor struct {
	Point mgl64.Vec3
	Kind  AnchorKind
}

// AnchorPlanner chooses where behind the target the agent should stand.
type AnchorPlanner struct {
	params   AnchorParams
	follow   FollowParams
	bridge   *NavigationBridge
	observer Observer
}

// NewAnchorPlanner creates a planner. Reachability is checked through bridge.
func NewAnchorPlanner(params AnchorParams, follow FollowParams, bridge *NavigationBridge, observer Observer) *AnchorPlanner {
	if observer == nil {
		observer = nopObserver{}
	}
	return &AnchorPlanner{params: params, follow: follow, bridge: bridge, observer: observer}
}

// Forward returns the unit horizontal heading used to place candidates:
// target velocity when moving, else look direction, else facing yaw.
func (p *AnchorPlanner) Forward(t Target) mgl64.Vec3 {
	if v := flatten(t.Velocity()); v.Len() > p.params.MinTargetSpeed {
		return v.Normalize()
	}
	if l := flatten(t.LookDirection()); l.Len() > 1e-6 {
		return l.Normalize()
	}
	return yawVector(t.Yaw())
}

// Candidates returns the ordered candidate points for target, before ground snapping.
func (p *AnchorPlanner) Candidates(t Target, side float64) [3]Anchor {
	tp := t.Position()
	f := p.Forward(t)
	right := mgl64.Vec3{-f.Z(), 0, f.X()}

	behind := tp.Sub(f.Mul(p.params.BehindDistance))
	return [3]Anchor{
		{Point: behind.Add(right.Mul(p.params.SideDistance * side)), Kind: AnchorBehindSide},
		{Point: behind, Kind: AnchorBehind},
		{Point: tp, Kind: AnchorDirect},
	}
}

// Plan computes a validated anchor. It never fails: if no candidate is visible from the
// target and reachable, the target's own position is returned.
func (p *AnchorPlanner) Plan(ctx *Context, s *Session) Anchor {
	t := s.Target
	eye := t.Position().Add(mgl64.Vec3{0, p.follow.TargetEyeHeight, 0})

	for _, c := range p.Candidates(t, s.SideSign) {
		pt := p.snap(ctx, c.Point)
		shoulder := pt.Add(mgl64.Vec3{0, p.follow.AgentShoulderHeight, 0})
		if !ctx.World.LineOfSightClear(eye, shoulder) {
			continue
		}
		if !p.bridge.CanReach(ctx, pt) {
			continue
		}
		return Anchor{Point: pt, Kind: c.Kind}
	}
	return Anchor{Point: t.Position(), Kind: AnchorFallback}
}

// snap moves a candidate onto the nearest standable surface within the scan window.
// Candidates with no ground nearby are left as-is and fail validation downstream.
func (p *AnchorPlanner) snap(ctx *Context, pt mgl64.Vec3) mgl64.Vec3 {
	if h, ok := ctx.World.GroundHeightNear(pt, p.params.GroundScanUp, p.params.GroundScanDown); ok {
		return mgl64.Vec3{pt.X(), h, pt.Z()}
	}
	return pt
}

// NeedsRefresh reports whether the anchor should be recomputed this tick.
func (p *AnchorPlanner) NeedsRefresh(ctx *Context, s *Session) bool {
	if !s.hasAnchor {
		return true
	}
	if ctx.Tick < s.anchorDeadline {
		return false
	}

	tp := s.Target.Position()
	thr := p.params.DisplacementThreshold
	if distSq(tp, s.anchorTargetPos) > thr*thr {
		return true
	}
	if ctx.Tick-s.LastProgressTick > p.params.StagnationTicks {
		return true
	}
	d := math.Sqrt(distSq(s.anchor, tp))
	return d < p.params.BandMin || d > p.params.BandMax
}

// Refresh recomputes the anchor when NeedsRefresh holds. Returns true if it was recomputed.
func (p *AnchorPlanner) Refresh(ctx *Context, s *Session) bool {
	if !p.NeedsRefresh(ctx, s) {
		return false
	}
	a := p.Plan(ctx, s)
	s.setAnchor(a.Point, a.Kind, s.Target.Position())
	s.anchorDeadline = ctx.Tick + p.params.RecomputeTicks
	s.LastProgressTick = ctx.Tick
	s.lastAnchorDist = math.Sqrt(distSq(ctx.Body.Position(), a.Point))

	p.observer.Observe(Event{
		Type:     EventAnchor,
		Tick:     ctx.Tick,
		AgentID:  ctx.Body.ID(),
		TargetID: s.Target.ID(),
		Session:  s.ID,
		Point:    a.Point,
		Anchor:   a.Kind,
	})
	return true
}

// TrackProgress records progress toward the anchor. Progress is a decrease in distance
// greater than ProgressEpsilon, or being within ArriveDistance.
func (p *AnchorPlanner) TrackProgress(s *Session, dist float64, tick int64) {
	if dist < s.lastAnchorDist-p.params.ProgressEpsilon || dist <= p.params.ArriveDistance {
		s.LastProgressTick = tick
		s.lastAnchorDist = dist
		return
	}
	// Allow the reference to drift upward so a later approach still counts.
	if dist > s.lastAnchorDist {
		s.lastAnchorDist = dist
	}
}
