package locomotion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// fakeWorld is flat ground at height 0 unless overridden.
type fakeWorld struct {
	ground   func(x, z float64) (float64, bool)
	blocked  func(from, to mgl64.Vec3) bool
	losCalls int
}

func (w *fakeWorld) IsSolidAt(pos mgl64.Vec3) bool {
	h, ok := w.groundAt(pos.X(), pos.Z())
	return ok && pos.Y() < h
}

func (w *fakeWorld) IsOutdoorAt(mgl64.Vec3) bool { return true }

func (w *fakeWorld) GroundHeightNear(pos mgl64.Vec3, up, down int) (float64, bool) {
	h, ok := w.groundAt(pos.X(), pos.Z())
	if !ok {
		return 0, false
	}
	if h > pos.Y()+float64(up) || h < pos.Y()-float64(down) {
		return 0, false
	}
	return h, true
}

func (w *fakeWorld) LineOfSightClear(from, to mgl64.Vec3) bool {
	w.losCalls++
	if w.blocked == nil {
		return true
	}
	return !w.blocked(from, to)
}

func (w *fakeWorld) groundAt(x, z float64) (float64, bool) {
	if w.ground == nil {
		return 0, true
	}
	return w.ground(x, z)
}

type fakePath struct {
	goal  mgl64.Vec3
	via   []mgl64.Vec3 // intermediate waypoints ahead of goal
	reach bool
	done  bool
}

func (p *fakePath) CanReach() bool { return p.reach }
func (p *fakePath) IsDone() bool   { return p.done }
func (p *fakePath) NextWaypoint() (mgl64.Vec3, bool) {
	if p.done {
		return mgl64.Vec3{}, false
	}
	if len(p.via) > 0 {
		return p.via[0], true
	}
	return p.goal, true
}

// fakeNav walks the body straight to the goal when advanced, through any
// waypoints route inserts.
type fakeNav struct {
	reachable func(mgl64.Vec3) bool
	route     func(goal mgl64.Vec3) []mgl64.Vec3
	path      *fakePath
	speed     float64

	moveCalls     int
	moveTicks     []int64
	setSpeedCalls int
	stopCalls     int
	createCalls   int
	clock         *int64
}

func (n *fakeNav) canReach(p mgl64.Vec3) bool {
	return n.reachable == nil || n.reachable(p)
}

func (n *fakeNav) CreatePath(point mgl64.Vec3) Path {
	n.createCalls++
	if !n.canReach(point) {
		return nil
	}
	return &fakePath{goal: point, reach: true}
}

func (n *fakeNav) MoveTo(point mgl64.Vec3, speed float64) bool {
	n.moveCalls++
	if n.clock != nil {
		n.moveTicks = append(n.moveTicks, *n.clock)
	}
	if !n.canReach(point) {
		return false
	}
	n.path = &fakePath{goal: point, reach: true}
	if n.route != nil {
		n.path.via = n.route(point)
	}
	n.speed = speed
	return true
}

func (n *fakeNav) SetSpeed(speed float64) {
	n.setSpeedCalls++
	n.speed = speed
}

func (n *fakeNav) CurrentPath() Path {
	if n.path == nil {
		return nil
	}
	return n.path
}

func (n *fakeNav) Stop() {
	n.stopCalls++
	n.path = nil
}

// advance moves body along the active path at the current speed.
func (n *fakeNav) advance(b *fakeBody) {
	if n.path == nil || n.path.done {
		b.vel = mgl64.Vec3{}
		return
	}
	wp, _ := n.path.NextWaypoint()
	d := flatten(wp.Sub(b.pos))
	l := d.Len()
	if l <= n.speed || l < 1e-3 {
		b.vel = d
		b.pos = mgl64.Vec3{wp.X(), b.pos.Y(), wp.Z()}
		if len(n.path.via) > 0 {
			n.path.via = n.path.via[1:]
		} else {
			n.path.done = true
		}
		return
	}
	b.vel = d.Mul(n.speed / l)
	b.pos = b.pos.Add(b.vel)
}

type fakeBody struct {
	id       uint64
	pos      mgl64.Vec3
	vel      mgl64.Vec3
	yaw      float64
	bodyYaw  float64
	grounded bool
	liquid   bool

	setVelocityCalls int
	setYawCalls      int
	jumps            []int64
	clock            *int64
}

func newFakeBody(pos mgl64.Vec3) *fakeBody {
	return &fakeBody{id: 1, pos: pos, grounded: true}
}

func (b *fakeBody) ID() uint64             { return b.id }
func (b *fakeBody) Position() mgl64.Vec3   { return b.pos }
func (b *fakeBody) Velocity() mgl64.Vec3   { return b.vel }
func (b *fakeBody) Yaw() float64           { return b.yaw }
func (b *fakeBody) IsGrounded() bool       { return b.grounded }
func (b *fakeBody) IsInLiquid() bool       { return b.liquid }
func (b *fakeBody) SetBodyYaw(yaw float64) { b.bodyYaw = yaw }

func (b *fakeBody) SetVelocity(v mgl64.Vec3) {
	b.setVelocityCalls++
	b.vel = v
}

func (b *fakeBody) SetYaw(yaw float64) {
	b.setYawCalls++
	b.yaw = yaw
}

func (b *fakeBody) TriggerJump() {
	var tick int64
	if b.clock != nil {
		tick = *b.clock
	}
	b.jumps = append(b.jumps, tick)
}

type fakeTarget struct {
	id        uint64
	pos       mgl64.Vec3
	vel       mgl64.Vec3
	look      mgl64.Vec3
	yaw       float64
	sprinting bool
	dead      bool
	spectator bool
}

func (t *fakeTarget) ID() uint64                { return t.id }
func (t *fakeTarget) Position() mgl64.Vec3      { return t.pos }
func (t *fakeTarget) Velocity() mgl64.Vec3      { return t.vel }
func (t *fakeTarget) LookDirection() mgl64.Vec3 { return t.look }
func (t *fakeTarget) Yaw() float64              { return t.yaw }
func (t *fakeTarget) IsSprinting() bool         { return t.sprinting }
func (t *fakeTarget) IsAlive() bool             { return !t.dead }
func (t *fakeTarget) IsSpectator() bool         { return t.spectator }
func (t *fakeTarget) step()                     { t.pos = t.pos.Add(t.vel) }

type recorder struct {
	events []Event
}

func (r *recorder) Observe(e Event) { r.events = append(r.events, e) }

func (r *recorder) count(typ EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *recorder) ofType(typ EventType) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// harness wires fakes into a Context and keeps the tick clock shared.
type harness struct {
	tick  int64
	world *fakeWorld
	nav   *fakeNav
	body  *fakeBody
}

func newHarness(agentPos mgl64.Vec3) *harness {
	h := &harness{world: &fakeWorld{}, nav: &fakeNav{}, body: newFakeBody(agentPos)}
	h.nav.clock = &h.tick
	h.body.clock = &h.tick
	return h
}

func (h *harness) ctx() *Context {
	return &Context{Tick: h.tick, World: h.world, Nav: h.nav, Body: h.body}
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func vecApprox(a, b mgl64.Vec3, tol float64) bool {
	return approx(a.X(), b.X(), tol) && approx(a.Y(), b.Y(), tol) && approx(a.Z(), b.Z(), tol)
}
