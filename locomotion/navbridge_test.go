package locomotion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNavigationBridgeRateLimit(t *testing.T) {
	params := DefaultParams().Nav
	rec := &recorder{}
	bridge := NewNavigationBridge(params, rec)
	h := newHarness(mgl64.Vec3{})
	s := newSession(&fakeTarget{id: 9}, 0, 1)

	// The anchor drifts past epsilon every interval; requests stay one per interval.
	for h.tick = 0; h.tick < 100; h.tick++ {
		anchor := mgl64.Vec3{float64(h.tick) * 0.1, 0, 5}
		bridge.Refresh(h.ctx(), s, anchor, 0.2)
	}

	if h.nav.moveCalls != 10 {
		t.Errorf("MoveTo calls = %d, want 10", h.nav.moveCalls)
	}
	for i := 1; i < len(h.nav.moveTicks); i++ {
		if gap := h.nav.moveTicks[i] - h.nav.moveTicks[i-1]; gap < params.RecomputeTicks {
			t.Errorf("requests at %d and %d closer than %d", h.nav.moveTicks[i-1], h.nav.moveTicks[i], params.RecomputeTicks)
		}
	}
	if h.nav.setSpeedCalls != 90 {
		t.Errorf("SetSpeed calls = %d, want 90", h.nav.setSpeedCalls)
	}
	if n := rec.count(EventPath); n != 10 {
		t.Errorf("path events = %d, want 10", n)
	}
}

func TestNavigationBridgeStableAnchor(t *testing.T) {
	bridge := NewNavigationBridge(DefaultParams().Nav, nil)
	h := newHarness(mgl64.Vec3{})
	s := newSession(&fakeTarget{}, 0, 1)
	anchor := mgl64.Vec3{5, 0, 5}

	for h.tick = 0; h.tick < 50; h.tick++ {
		bridge.Refresh(h.ctx(), s, anchor, 0.2)
	}
	if h.nav.moveCalls != 1 {
		t.Errorf("MoveTo calls = %d, want 1 for an unchanged anchor on a live path", h.nav.moveCalls)
	}

	// Path finishes: reissued at the next deadline even though the anchor is unchanged.
	h.nav.path.done = true
	for ; h.tick < 60; h.tick++ {
		bridge.Refresh(h.ctx(), s, anchor, 0.2)
	}
	if h.nav.moveCalls != 2 {
		t.Errorf("MoveTo calls = %d, want 2 after path completed", h.nav.moveCalls)
	}
}

func TestNavigationBridgeRejected(t *testing.T) {
	params := DefaultParams().Nav
	rec := &recorder{}
	bridge := NewNavigationBridge(params, rec)
	h := newHarness(mgl64.Vec3{})
	h.nav.reachable = func(mgl64.Vec3) bool { return false }
	s := newSession(&fakeTarget{}, 0, 1)

	for h.tick = 0; h.tick < 25; h.tick++ {
		if bridge.Refresh(h.ctx(), s, mgl64.Vec3{3, 0, 3}, 0.2) {
			t.Fatalf("tick %d: unreachable anchor reported as issued", h.tick)
		}
	}
	// Retries only at deadlines: ticks 0, 10, 20.
	if h.nav.moveCalls != 3 {
		t.Errorf("MoveTo attempts = %d, want 3", h.nav.moveCalls)
	}
	if n := rec.count(EventPathRejected); n != 3 {
		t.Errorf("rejected events = %d, want 3", n)
	}
}

func TestNavigationBridgeCanReach(t *testing.T) {
	bridge := NewNavigationBridge(DefaultParams().Nav, nil)
	h := newHarness(mgl64.Vec3{})
	h.nav.reachable = func(p mgl64.Vec3) bool { return p.X() < 5 }

	if !bridge.CanReach(h.ctx(), mgl64.Vec3{1, 0, 0}) {
		t.Error("expected reachable")
	}
	if bridge.CanReach(h.ctx(), mgl64.Vec3{6, 0, 0}) {
		t.Error("expected unreachable")
	}
	if h.nav.moveCalls != 0 || h.nav.path != nil {
		t.Error("CanReach must not commit movement")
	}
}

func TestNavigationBridgeStop(t *testing.T) {
	bridge := NewNavigationBridge(DefaultParams().Nav, nil)
	h := newHarness(mgl64.Vec3{})
	s := newSession(&fakeTarget{}, 0, 1)
	bridge.Refresh(h.ctx(), s, mgl64.Vec3{5, 0, 0}, 0.2)

	h.tick = 2
	bridge.Stop(h.ctx(), s)
	if h.nav.stopCalls != 1 || h.nav.CurrentPath() != nil {
		t.Error("Stop did not halt navigation")
	}

	// Resuming inside the old recompute interval issues a path at once.
	h.tick = 3
	if !bridge.Refresh(h.ctx(), s, mgl64.Vec3{5, 0, 0}, 0.2) {
		t.Error("Refresh after Stop waited for the recompute deadline")
	}
	if h.nav.moveCalls != 2 {
		t.Errorf("MoveTo calls = %d, want 2", h.nav.moveCalls)
	}
}
