package locomotion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestGaitTransitions(t *testing.T) {
	g := NewGaitController(DefaultParams().Gait)

	tests := []struct {
		name      string
		from      Gait
		dist      float64
		sprinting bool
		want      Gait
	}{
		{"walk stays walk when near", GaitWalk, 5, false, GaitWalk},
		{"walk to run beyond run distance", GaitWalk, 9, false, GaitRun},
		{"walk never jumps straight to run-jump", GaitWalk, 25, true, GaitRun},
		{"run holds inside band", GaitRun, 8.5, false, GaitRun},
		{"run to walk inside run distance", GaitRun, 7, false, GaitWalk},
		{"run to run-jump when sprinting", GaitRun, 9, true, GaitRunJump},
		{"run to run-jump beyond catch-up", GaitRun, 21, false, GaitRunJump},
		{"run-jump holds while sprinting", GaitRunJump, 3, true, GaitRunJump},
		{"run-jump holds beyond jump distance", GaitRunJump, 12, false, GaitRunJump},
		{"run-jump to run when calm and close", GaitRunJump, 9, false, GaitRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(&fakeTarget{}, 0, 1)
			s.Gait.Mode = tt.from
			changed := g.Update(s, 100, tt.dist*tt.dist, tt.sprinting)
			if s.Gait.Mode != tt.want {
				t.Errorf("mode = %v, want %v", s.Gait.Mode, tt.want)
			}
			if changed != (tt.from != tt.want) {
				t.Errorf("changed = %v, want %v", changed, tt.from != tt.want)
			}
		})
	}
}

func TestGaitLockSpacesTransitions(t *testing.T) {
	params := DefaultParams().Gait
	g := NewGaitController(params)
	s := newSession(&fakeTarget{}, 0, 1)

	// Oscillate distance across the run threshold every tick.
	var commits []int64
	for tick := int64(0); tick < 200; tick++ {
		dist := 7.0
		if tick%2 == 0 {
			dist = 9.0
		}
		if g.Update(s, tick, dist*dist, false) {
			commits = append(commits, tick)
		}
	}

	if len(commits) < 2 {
		t.Fatalf("expected multiple transitions, got %d", len(commits))
	}
	for i := 1; i < len(commits); i++ {
		if gap := commits[i] - commits[i-1]; gap < params.LockTicks {
			t.Errorf("transitions at %d and %d are %d ticks apart, want >= %d",
				commits[i-1], commits[i], gap, params.LockTicks)
		}
	}
	if s.Transitions != len(commits) {
		t.Errorf("session counted %d transitions, want %d", s.Transitions, len(commits))
	}
}

func TestDesiredSpeed(t *testing.T) {
	params := DefaultParams().Gait
	g := NewGaitController(params)

	tests := []struct {
		name string
		dist float64
		mode Gait
		want float64
	}{
		{"near is walk speed", 2, GaitWalk, params.WalkSpeed},
		{"far in walk is capped by walk ceiling", 12, GaitWalk, params.WalkCeiling},
		{"far in run is run speed", 12, GaitRun, params.RunSpeed},
		{"midpoint interpolates", 6, GaitRun, (params.WalkSpeed + params.RunSpeed) / 2},
		{"run-jump boosts", 12, GaitRunJump, params.RunSpeed * params.SprintBoost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.DesiredSpeed(tt.dist, tt.mode)
			if !approx(got, tt.want, 1e-9) {
				t.Errorf("DesiredSpeed(%v, %v) = %v, want %v", tt.dist, tt.mode, got, tt.want)
			}
		})
	}
}

func TestDesiredSpeedNeverExceedsCap(t *testing.T) {
	params := DefaultParams().Gait
	params.SprintBoost = 10
	g := NewGaitController(params)

	for _, mode := range []Gait{GaitWalk, GaitRun, GaitRunJump} {
		for dist := 0.0; dist < 40; dist += 0.5 {
			if s := g.DesiredSpeed(dist, mode); s > params.SpeedCap {
				t.Fatalf("DesiredSpeed(%v, %v) = %v exceeds cap %v", dist, mode, s, params.SpeedCap)
			}
		}
	}
}

func TestSmoothStepBound(t *testing.T) {
	params := DefaultParams().Gait
	g := NewGaitController(params)

	tests := []struct {
		name    string
		current float64
		desired float64
		want    float64
	}{
		{"accelerates one step", 0, 0.3, params.AccelStep},
		{"decelerates one step", 0.3, 0, 0.3 - params.DecelStep},
		{"does not overshoot up", 0.1, 0.11, 0.11},
		{"does not overshoot down", 0.1, 0.095, 0.095},
		{"holds at desired", 0.2, 0.2, 0.2},
		{"never negative", 0.01, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Smooth(tt.current, tt.desired, GaitRunJump)
			if !approx(got, tt.want, 1e-9) {
				t.Errorf("Smooth(%v, %v) = %v, want %v", tt.current, tt.desired, got, tt.want)
			}
		})
	}

	// Random walk of desired speeds: every step stays inside the bound.
	speed := 0.0
	desired := []float64{0.4, 0.1, 0.35, 0, 0.2, 0.4, 0.05}
	for i := 0; i < 300; i++ {
		d := desired[(i/7)%len(desired)]
		next := g.Smooth(speed, d, GaitRunJump)
		if next-speed > params.AccelStep+1e-12 || speed-next > params.DecelStep+1e-12 {
			t.Fatalf("step %d: %v -> %v exceeds bound", i, speed, next)
		}
		speed = next
	}
}

func TestSmoothDownshiftClampsToCeiling(t *testing.T) {
	params := DefaultParams().Gait
	g := NewGaitController(params)
	s := newSession(&fakeTarget{}, 0, 1)
	s.Gait.Mode = GaitRunJump
	s.Gait.Speed = params.RunSpeed * params.SprintBoost

	// Calm target well inside jump distance: RUN_JUMP drops to RUN.
	if !g.Update(s, 100, 9*9, false) || s.Gait.Mode != GaitRun {
		t.Fatalf("mode = %v, want RUN", s.Gait.Mode)
	}
	desired := g.DesiredSpeed(9, s.Gait.Mode)
	s.Gait.Speed = g.Smooth(s.Gait.Speed, desired, s.Gait.Mode)
	if s.Gait.Speed > params.RunCeiling {
		t.Errorf("speed %v above run ceiling %v after downshift", s.Gait.Speed, params.RunCeiling)
	}

	for _, mode := range []Gait{GaitWalk, GaitRun, GaitRunJump} {
		if got := g.Smooth(1, 1, mode); got > g.ceiling(mode) || got > params.SpeedCap {
			t.Errorf("Smooth in %v = %v, want <= min(cap, ceiling %v)", mode, got, g.ceiling(mode))
		}
	}
}

func TestShouldJumpCooldown(t *testing.T) {
	params := DefaultParams().Gait
	g := NewGaitController(params)
	h := newHarness(mgl64.Vec3{})
	s := newSession(&fakeTarget{}, 0, 1)
	s.Gait.Mode = GaitRunJump
	far := (params.JumpDistance + 1) * (params.JumpDistance + 1)

	var jumps []int64
	for h.tick = 0; h.tick < 100; h.tick++ {
		if g.ShouldJump(h.ctx(), s, far) {
			g.MarkJumped(s, h.tick)
			jumps = append(jumps, h.tick)
		}
	}
	if len(jumps) == 0 {
		t.Fatal("expected jumps")
	}
	for i := 1; i < len(jumps); i++ {
		if jumps[i]-jumps[i-1] < params.JumpCooldownTicks {
			t.Errorf("jumps at %d and %d violate cooldown %d", jumps[i-1], jumps[i], params.JumpCooldownTicks)
		}
	}
}

func TestShouldJumpPreconditions(t *testing.T) {
	params := DefaultParams().Gait
	g := NewGaitController(params)
	far := (params.JumpDistance + 1) * (params.JumpDistance + 1)
	near := (params.JumpDistance - 1) * (params.JumpDistance - 1)

	tests := []struct {
		name     string
		mode     Gait
		distSq   float64
		grounded bool
		liquid   bool
		want     bool
	}{
		{"all conditions met", GaitRunJump, far, true, false, true},
		{"not in run-jump", GaitRun, far, true, false, false},
		{"too close", GaitRunJump, near, true, false, false},
		{"airborne", GaitRunJump, far, false, false, false},
		{"swimming", GaitRunJump, far, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(mgl64.Vec3{})
			h.body.grounded = tt.grounded
			h.body.liquid = tt.liquid
			s := newSession(&fakeTarget{}, 0, 1)
			s.Gait.Mode = tt.mode
			if got := g.ShouldJump(h.ctx(), s, tt.distSq); got != tt.want {
				t.Errorf("ShouldJump = %v, want %v", got, tt.want)
			}
		})
	}
}
