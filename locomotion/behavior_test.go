package locomotion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type stubBehavior struct {
	name    string
	ready   bool
	keep    bool
	startOK bool
	starts  int
	ticks   int
	stops   int
	seed    int64
}

func (b *stubBehavior) Name() string                 { return b.name }
func (b *stubBehavior) CanActivate(*Context) bool    { return b.ready }
func (b *stubBehavior) ShouldContinue(*Context) bool { return b.keep }
func (b *stubBehavior) Tick(*Context)                { b.ticks++ }
func (b *stubBehavior) Stop(*Context)                { b.stops++ }

func (b *stubBehavior) Start(*Context) bool {
	b.starts++
	return b.startOK
}

func TestSchedulerPriority(t *testing.T) {
	h := newHarness(mgl64.Vec3{})
	high := &stubBehavior{name: "high", ready: true, keep: true, startOK: true}
	low := &stubBehavior{name: "low", ready: true, keep: true, startOK: true}
	s := NewScheduler(high, low)

	s.Tick(h.ctx())
	if s.Active() != high {
		t.Fatalf("active = %v, want high", s.Active())
	}
	if high.ticks != 1 || low.starts != 0 {
		t.Errorf("high ticks %d, low starts %d", high.ticks, low.starts)
	}

	s.Tick(h.ctx())
	if high.starts != 1 || high.ticks != 2 {
		t.Errorf("active behavior restarted: starts %d ticks %d", high.starts, high.ticks)
	}
}

func TestSchedulerHandoverSameTick(t *testing.T) {
	h := newHarness(mgl64.Vec3{})
	first := &stubBehavior{name: "first", ready: true, keep: true, startOK: true}
	second := &stubBehavior{name: "second", ready: true, keep: true, startOK: true}
	s := NewScheduler(first, second)
	s.Tick(h.ctx())

	first.keep = false
	first.ready = false
	s.Tick(h.ctx())

	if first.stops != 1 {
		t.Errorf("first stops = %d, want 1", first.stops)
	}
	if s.Active() != second || second.ticks != 1 {
		t.Errorf("second not activated in the same tick")
	}
}

func TestSchedulerFailedStart(t *testing.T) {
	h := newHarness(mgl64.Vec3{})
	flaky := &stubBehavior{name: "flaky", ready: true, startOK: false}
	fallback := &stubBehavior{name: "fallback", ready: true, keep: true, startOK: true}
	s := NewScheduler(flaky, fallback)

	s.Tick(h.ctx())
	if s.Active() != fallback {
		t.Errorf("active = %v, want fallback", s.Active())
	}
	if flaky.ticks != 0 {
		t.Error("failed start was ticked")
	}

	s.Stop(h.ctx())
	if s.Active() != nil || fallback.stops != 1 {
		t.Error("Stop did not halt the active behavior")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func(seed int64) Behavior { return &stubBehavior{name: "stub", seed: seed} }
	if err := r.Register("stub", factory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("stub", factory); err == nil {
		t.Error("duplicate Register succeeded")
	}
	if _, err := r.New("missing", 0); err == nil {
		t.Error("New of unknown behavior succeeded")
	}

	a, _ := r.New("stub", 1)
	b, _ := r.New("stub", 2)
	if a == b {
		t.Error("factory returned a shared instance")
	}

	sched, err := r.NewScheduler(10, "stub", "stub")
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	bs := sched.Behaviors()
	if len(bs) != 2 || bs[0].(*stubBehavior).seed != 10 || bs[1].(*stubBehavior).seed != 11 {
		t.Errorf("scheduler behaviors not seeded per slot: %+v", bs)
	}
	if _, err := r.NewScheduler(0, "stub", "missing"); err == nil {
		t.Error("NewScheduler with unknown name succeeded")
	}
	if names := r.Names(); len(names) != 1 || names[0] != "stub" {
		t.Errorf("Names = %v", names)
	}
}

func TestFollowArbiterIsBehavior(t *testing.T) {
	r := NewRegistry()
	target := &fakeTarget{id: 1, pos: mgl64.Vec3{10, 0, 0}, vel: mgl64.Vec3{0.1, 0, 0}}
	err := r.Register("follow", func(seed int64) Behavior {
		return NewFollowArbiter(ArbiterOptions{Params: DefaultParams(), Targets: TargetList{target}, Seed: seed})
	})
	if err != nil {
		t.Fatal(err)
	}
	sched, err := r.NewScheduler(1, "follow")
	if err != nil {
		t.Fatal(err)
	}
	h := newHarness(mgl64.Vec3{})
	sched.Tick(h.ctx())
	if sched.Active() == nil || sched.Active().Name() != "follow" {
		t.Error("follow behavior not activated")
	}
}
