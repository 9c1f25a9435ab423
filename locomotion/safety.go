package locomotion

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Risk is the terrain classification ahead of the agent.
type Risk uint8

const (
	RiskSafe Risk = iota
	RiskCaution
	RiskDanger
)

func (r Risk) String() string {
	switch r {
	case RiskSafe:
		return "SAFE"
	case RiskCaution:
		return "CAUTION"
	case RiskDanger:
		return "DANGER"
	default:
		return fmt.Sprintf("Risk(%d)", uint8(r))
	}
}

// SafetyProbe classifies the ground a fixed distance ahead along the travel direction.
// It is advisory: callers decide what a DANGER result suppresses.
type SafetyProbe struct {
	params SafetyParams
}

// NewSafetyProbe creates a probe.
func NewSafetyProbe(params SafetyParams) *SafetyProbe {
	return &SafetyProbe{params: params}
}

// Classify probes from the agent position toward a waypoint or fallback point.
func (p *SafetyProbe) Classify(ctx *Context, from, toward mgl64.Vec3) Risk {
	dir := flatten(toward.Sub(from))
	if dir.Len() < 1e-6 {
		// Nothing ahead to walk into
		return RiskSafe
	}
	probe := from.Add(dir.Normalize().Mul(p.params.ProbeDistance))

	ground, ok := ctx.World.GroundHeightNear(probe, p.params.ScanUp, p.params.ScanDown)
	if !ok {
		return RiskDanger
	}
	return p.classifyDelta(ground - from.Y())
}

func (p *SafetyProbe) classifyDelta(delta float64) Risk {
	d := math.Abs(delta)
	switch {
	case d < p.params.CautionThreshold:
		return RiskSafe
	case d < p.params.DangerThreshold:
		return RiskCaution
	default:
		return RiskDanger
	}
}
