package systems

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/companion/config"
	"github.com/pthm-cable/companion/locomotion"
)

// Distance ahead of the agent checked for ledges.
const stepProbe = 0.6

// Locator reports the current position of the entity a navigator drives.
type Locator func() mgl64.Vec3

// NavPath is a planned route being followed waypoint by waypoint.
type NavPath struct {
	waypoints []mgl64.Vec3
	goal      mgl64.Vec3
	reached   bool
	next      int
}

func newNavPath(p *PlannedPath) *NavPath {
	return &NavPath{waypoints: p.Waypoints, goal: p.Goal, reached: p.Reached}
}

// CanReach reports whether the route ends at the requested goal.
func (p *NavPath) CanReach() bool { return p.reached }

// IsDone reports whether every waypoint has been passed.
func (p *NavPath) IsDone() bool { return p.next >= len(p.waypoints) }

// NextWaypoint returns the waypoint currently being approached.
func (p *NavPath) NextWaypoint() (mgl64.Vec3, bool) {
	if p.IsDone() {
		return mgl64.Vec3{}, false
	}
	return p.waypoints[p.next], true
}

// Goal returns the requested end point.
func (p *NavPath) Goal() mgl64.Vec3 { return p.goal }

// Remaining returns the waypoints not yet passed.
func (p *NavPath) Remaining() []mgl64.Vec3 {
	if p.IsDone() {
		return nil
	}
	return p.waypoints[p.next:]
}

// PathNavigator is the per-agent navigation service over a shared A* planner.
// It owns at most one active path and turns it into a velocity on request.
type PathNavigator struct {
	planner    *AStarPlanner
	locate     Locator
	arrive     float64
	stepHeight float64

	path  *NavPath
	speed float64
}

var _ locomotion.Navigator = (*PathNavigator)(nil)

// NewPathNavigator creates a navigator for the entity found by locate.
func NewPathNavigator(planner *AStarPlanner, locate Locator, pf config.PathfindingConfig, ph config.PhysicsConfig) *PathNavigator {
	return &PathNavigator{
		planner:    planner,
		locate:     locate,
		arrive:     pf.WaypointArrive,
		stepHeight: ph.StepHeight,
	}
}

// SetConfig updates the arrival radius and step height.
func (n *PathNavigator) SetConfig(pf config.PathfindingConfig, ph config.PhysicsConfig) {
	n.arrive = pf.WaypointArrive
	n.stepHeight = ph.StepHeight
}

// CreatePath plans a route to point without following it.
func (n *PathNavigator) CreatePath(point mgl64.Vec3) locomotion.Path {
	planned := n.planner.FindPath(n.locate(), point)
	if planned == nil {
		return nil
	}
	return newNavPath(planned)
}

// MoveTo plans a route to point and follows it at speed.
// The active path is kept when point cannot be reached.
func (n *PathNavigator) MoveTo(point mgl64.Vec3, speed float64) bool {
	planned := n.planner.FindPath(n.locate(), point)
	if planned == nil || !planned.Reached {
		return false
	}
	n.path = newNavPath(planned)
	n.speed = speed
	return true
}

// SetSpeed changes the speed of the active path.
func (n *PathNavigator) SetSpeed(speed float64) { n.speed = speed }

// Speed returns the commanded speed.
func (n *PathNavigator) Speed() float64 { return n.speed }

// CurrentPath returns the active path or nil.
func (n *PathNavigator) CurrentPath() locomotion.Path {
	if n.path == nil {
		return nil
	}
	return n.path
}

// Active returns the active path for display, or nil.
func (n *PathNavigator) Active() *NavPath { return n.path }

// Stop drops the active path.
func (n *PathNavigator) Stop() {
	n.path = nil
	n.speed = 0
}

// Steer advances past reached waypoints and returns the horizontal velocity toward the
// next one. jump is set when the next column is a ledge too high to step onto.
// ok is false when there is no path to follow; the caller's velocity is then left alone.
func (n *PathNavigator) Steer(pos mgl64.Vec3, grounded bool) (vel mgl64.Vec3, jump, ok bool) {
	if n.path == nil {
		return mgl64.Vec3{}, false, false
	}
	p := n.path
	for !p.IsDone() && horizontalDist(pos, p.waypoints[p.next]) <= n.arrive {
		p.next++
	}
	wp, more := p.NextWaypoint()
	if !more {
		return mgl64.Vec3{}, false, false
	}

	d := flatten(wp.Sub(pos))
	dist := d.Len()
	if dist < 1e-9 || n.speed <= 0 {
		return mgl64.Vec3{}, false, true
	}
	speed := n.speed
	if dist < speed {
		speed = dist
	}
	dir := d.Mul(1 / dist)
	vel = dir.Mul(speed)

	if grounded {
		grid := n.planner.Grid()
		ahead := pos.Add(dir.Mul(stepProbe))
		ax, az := grid.WorldToGrid(ahead.X(), ahead.Z())
		jump = grid.Height(ax, az)-pos.Y() > n.stepHeight && !grid.IsBlocked(ax, az)
	}
	return vel, jump, true
}
