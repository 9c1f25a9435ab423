package game

import (
	"fmt"
	"time"

	"github.com/pthm-cable/companion/components"
	"github.com/pthm-cable/companion/telemetry"
)

// Field is one labelled value for the inspector panel.
type Field struct {
	Label    string
	Text     string
	Value    float64
	Min, Max float64
	Bar      bool
	Centered bool
}

func fieldsFrom(descs []components.FieldDescriptor, value func(id string) float64) []Field {
	out := make([]Field, 0, len(descs))
	for _, d := range descs {
		v := value(d.ID)
		if v == 0 && !d.ShowWhenZero && !d.IsBar {
			continue
		}
		out = append(out, Field{
			Label:    d.Label,
			Text:     fmt.Sprintf(d.Format, v),
			Value:    v,
			Min:      d.Min,
			Max:      d.Max,
			Bar:      d.IsBar,
			Centered: d.IsCentered,
		})
	}
	return out
}

// InspectAgent returns the physical body fields of an agent.
func (g *Game) InspectAgent(id uint64) ([]Field, bool) {
	a := g.findAgent(id)
	if a == nil {
		return nil, false
	}
	body := g.bodyMap.Get(a.entity)
	vel := g.velMap.Get(a.entity)
	return fieldsFrom(components.BodyFieldDescriptors(), func(fid string) float64 {
		return components.GetBodyValue(body, vel, fid)
	}), true
}

// InspectTarget returns the scripted actor fields of a target.
func (g *Game) InspectTarget(id uint64) ([]Field, bool) {
	t := g.findTarget(id)
	if t == nil {
		return nil, false
	}
	actor := t.actor()
	return fieldsFrom(components.ActorFieldDescriptors(), func(fid string) float64 {
		return components.GetActorValue(actor, fid)
	}), true
}

// PhaseTiming is the average cost of one tick phase.
type PhaseTiming struct {
	Name string
	Avg  time.Duration
	Pct  float64
}

// PhaseTimings reports per-phase tick cost in execution order.
func (g *Game) PhaseTimings() []PhaseTiming {
	stats := g.perfCollector.Stats()
	out := make([]PhaseTiming, 0, telemetry.NumPhases)
	for p := telemetry.Phase(0); p < telemetry.NumPhases; p++ {
		out = append(out, PhaseTiming{Name: p.Info().Name, Avg: stats.PhaseAvg[p], Pct: stats.PhasePct[p]})
	}
	return out
}
