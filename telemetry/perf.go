package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       [NumPhases]time.Duration
}

// PerfCollector tracks step timing over a rolling window of ticks.
// Phase timings live in fixed arrays so a tick allocates nothing.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	inPhase    bool
	phase      Phase

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration

	scratch []float64
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		scratch:    make([]float64, 0, windowSize),
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PerfSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = phase < NumPhases
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.TickDuration = now.Sub(p.tickStart)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Per-phase average duration and share of the average tick
	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	var phaseSum [NumPhases]time.Duration
	p.scratch = p.scratch[:0]
	for i := 0; i < p.sampleCount; i++ {
		smp := &p.samples[i]
		total += smp.TickDuration
		if i == 0 || smp.TickDuration < s.MinTickDuration {
			s.MinTickDuration = smp.TickDuration
		}
		s.MaxTickDuration = max(s.MaxTickDuration, smp.TickDuration)
		for ph, d := range smp.Phases {
			phaseSum[ph] += d
		}
		p.scratch = append(p.scratch, float64(smp.TickDuration))
	}

	n := time.Duration(p.sampleCount)
	s.AvgTickDuration = total / n
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}

	slices.Sort(p.scratch)
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, p.scratch, nil))
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for ph, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, Phase(ph).String()+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat row for perf.csv.
type PerfStatsCSV struct {
	WindowEnd      int64   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	P95TickUS      int64   `csv:"p95_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	FPS            float64 `csv:"fps"`
	TargetsPct     float64 `csv:"targets_pct"`
	SpatialGridPct float64 `csv:"spatial_grid_pct"`
	FollowPct      float64 `csv:"follow_pct"`
	SteerPct       float64 `csv:"steer_pct"`
	PhysicsPct     float64 `csv:"physics_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		P95TickUS:      s.P95TickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		FPS:            s.FPS,
		TargetsPct:     s.PhasePct[PhaseTargets],
		SpatialGridPct: s.PhasePct[PhaseSpatialGrid],
		FollowPct:      s.PhasePct[PhaseFollow],
		SteerPct:       s.PhasePct[PhaseSteer],
		PhysicsPct:     s.PhasePct[PhasePhysics],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
