package telemetry

// Phase identifies one stage of the simulation step.
type Phase uint8

// Simulation phases in execution order.
const (
	PhaseTargets Phase = iota
	PhaseSpatialGrid
	PhaseFollow
	PhaseSteer
	PhasePhysics
	PhaseTelemetry

	NumPhases
)

// PhaseInfo describes a phase for display and export.
type PhaseInfo struct {
	ID          string // column prefix and log key
	Name        string
	Description string
	Category    string // "world", "ai", "physics" or "internal"
}

var phaseInfo = [NumPhases]PhaseInfo{
	PhaseTargets:     {ID: "targets", Name: "Targets", Description: "Moves scripted target actors", Category: "world"},
	PhaseSpatialGrid: {ID: "spatial_grid", Name: "Spatial Grid", Description: "Buckets targets for neighbour queries", Category: "world"},
	PhaseFollow:      {ID: "follow", Name: "Follow", Description: "Runs companion behavior schedulers", Category: "ai"},
	PhaseSteer:       {ID: "steer", Name: "Steer", Description: "Turns active paths into velocities", Category: "ai"},
	PhasePhysics:     {ID: "physics", Name: "Physics", Description: "Applies gravity, jumps and collisions", Category: "physics"},
	PhaseTelemetry:   {ID: "telemetry", Name: "Telemetry", Description: "Samples distances and flushes windows", Category: "internal"},
}

// Info returns the metadata for p.
func (p Phase) Info() PhaseInfo {
	if p >= NumPhases {
		return PhaseInfo{ID: "unknown", Name: "Unknown"}
	}
	return phaseInfo[p]
}

func (p Phase) String() string { return p.Info().ID }

// PhasesInCategory returns the phases with the given category, in order.
func PhasesInCategory(category string) []Phase {
	var out []Phase
	for p := Phase(0); p < NumPhases; p++ {
		if phaseInfo[p].Category == category {
			out = append(out, p)
		}
	}
	return out
}
