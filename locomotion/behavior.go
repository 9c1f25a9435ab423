package locomotion

import (
	"fmt"
	"sort"
)

// Behavior is a schedulable unit of agent control.
type Behavior interface {
	Name() string
	CanActivate(ctx *Context) bool
	ShouldContinue(ctx *Context) bool
	// Start activates the behavior. Returning false leaves it inactive.
	Start(ctx *Context) bool
	Tick(ctx *Context)
	Stop(ctx *Context)
}

// Scheduler runs at most one behavior per agent. Behaviors are tried in the
// order given; the first that can activate wins and runs until it no longer
// wants to continue.
type Scheduler struct {
	behaviors []Behavior
	active    Behavior
}

// NewScheduler creates a scheduler over behaviors in priority order.
func NewScheduler(behaviors ...Behavior) *Scheduler {
	return &Scheduler{behaviors: behaviors}
}

// Active returns the running behavior or nil.
func (s *Scheduler) Active() Behavior { return s.active }

// Behaviors returns the scheduled behaviors in priority order.
func (s *Scheduler) Behaviors() []Behavior { return s.behaviors }

// Tick advances the active behavior, or activates one if none is running.
// A behavior that stops continuing is stopped and activation is retried in the same tick.
func (s *Scheduler) Tick(ctx *Context) {
	if s.active != nil {
		if s.active.ShouldContinue(ctx) {
			s.active.Tick(ctx)
			return
		}
		s.active.Stop(ctx)
		s.active = nil
	}
	for _, b := range s.behaviors {
		if !b.CanActivate(ctx) {
			continue
		}
		if b.Start(ctx) {
			s.active = b
			b.Tick(ctx)
			return
		}
	}
}

// Stop halts the active behavior.
func (s *Scheduler) Stop(ctx *Context) {
	if s.active != nil {
		s.active.Stop(ctx)
		s.active = nil
	}
}

// Factory builds a per-agent behavior instance.
type Factory func(seed int64) Behavior

// Registry maps behavior names to factories. Each agent gets fresh instances,
// so no behavior state is shared between agents.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. Registering a name twice is an error.
func (r *Registry) Register(name string, f Factory) error {
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("behavior %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// New builds the named behavior.
func (r *Registry) New(name string, seed int64) (Behavior, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown behavior %q", name)
	}
	return f(seed), nil
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewScheduler builds a scheduler with fresh instances of the named behaviors.
func (r *Registry) NewScheduler(seed int64, names ...string) (*Scheduler, error) {
	behaviors := make([]Behavior, 0, len(names))
	for i, n := range names {
		b, err := r.New(n, seed+int64(i))
		if err != nil {
			return nil, fmt.Errorf("building scheduler: %w", err)
		}
		behaviors = append(behaviors, b)
	}
	return NewScheduler(behaviors...), nil
}
