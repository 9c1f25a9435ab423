package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated follow statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Agent counts at window end
	Agents  int `csv:"agents"`
	Engaged int `csv:"engaged"`

	// Session lifecycle during window
	Engages             int `csv:"engages"`
	Disengages          int `csv:"disengages"`
	DisengageInvalid    int `csv:"disengage_invalid"`
	DisengageOutOfRange int `csv:"disengage_out_of_range"`
	DisengageReassigned int `csv:"disengage_reassigned"`
	DisengagePreempted  int `csv:"disengage_preempted"`
	Settles             int `csv:"settles"`
	Resumes             int `csv:"resumes"`

	// Gait
	GaitChanges int `csv:"gait_changes"`
	Jumps       int `csv:"jumps"`

	// Anchors and navigation
	AnchorRecomputes int     `csv:"anchor_recomputes"`
	AnchorFallbacks  int     `csv:"anchor_fallbacks"`
	FallbackRate     float64 `csv:"fallback_rate"`
	PathRequests     int     `csv:"path_requests"`
	PathsRejected    int     `csv:"paths_rejected"`
	PathRate         float64 `csv:"path_rate"` // Requests per agent-second
	DangerTicks      int     `csv:"danger_ticks"`

	// Agent-to-target distance distribution
	DistMean float64 `csv:"dist_mean"`
	DistStd  float64 `csv:"dist_std"`
	DistP10  float64 `csv:"dist_p10"`
	DistP50  float64 `csv:"dist_p50"`
	DistP90  float64 `csv:"dist_p90"`
}

// DistanceStats summarizes a set of distance samples.
type DistanceStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistanceStats calculates the population mean, standard deviation and
// empirical percentiles of values. Returns zeros for an empty slice.
func ComputeDistanceStats(values []float64) DistanceStats {
	if len(values) == 0 {
		return DistanceStats{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return DistanceStats{
		Mean: mean,
		Std:  std,
		P10:  stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("engaged", s.Engaged),
		slog.Int("engages", s.Engages),
		slog.Int("disengages", s.Disengages),
		slog.Int("settles", s.Settles),
		slog.Int("resumes", s.Resumes),
		slog.Int("gait_changes", s.GaitChanges),
		slog.Int("jumps", s.Jumps),
		slog.Int("anchor_recomputes", s.AnchorRecomputes),
		slog.Float64("fallback_rate", s.FallbackRate),
		slog.Int("path_requests", s.PathRequests),
		slog.Int("paths_rejected", s.PathsRejected),
		slog.Float64("path_rate", s.PathRate),
		slog.Int("danger_ticks", s.DangerTicks),
		slog.Float64("dist_mean", s.DistMean),
		slog.Float64("dist_p50", s.DistP50),
		slog.Float64("dist_p90", s.DistP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"engaged", s.Engaged,
		"engages", s.Engages,
		"disengages", s.Disengages,
		"disengage_out_of_range", s.DisengageOutOfRange,
		"settles", s.Settles,
		"resumes", s.Resumes,
		"gait_changes", s.GaitChanges,
		"jumps", s.Jumps,
		"anchor_recomputes", s.AnchorRecomputes,
		"anchor_fallbacks", s.AnchorFallbacks,
		"path_requests", s.PathRequests,
		"paths_rejected", s.PathsRejected,
		"path_rate", s.PathRate,
		"danger_ticks", s.DangerTicks,
		"dist_mean", s.DistMean,
		"dist_std", s.DistStd,
		"dist_p10", s.DistP10,
		"dist_p50", s.DistP50,
		"dist_p90", s.DistP90,
	)
}
