package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/companion/config"
	"github.com/pthm-cable/companion/game"
	"github.com/pthm-cable/companion/telemetry"
)

// Penalty returned for parameter vectors that do not produce a valid config.
const invalidFitness = 1e6

// Fitness component weights. Distance terms are in world units, rates per
// engaged agent-second.
const (
	weightDistError   = 1.0
	weightSpread      = 0.5
	weightGaitChurn   = 4.0
	weightFallback    = 2.0
	weightLostContact = 20.0
	weightPathRate    = 0.5
	weightDanger      = 1.0

	fitnessWarmupWindows = 2 // skip the approach phase
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu        sync.Mutex
	lastScore Score // breakdown from most recent Evaluate call
}

// Score is the averaged breakdown of one evaluation.
type Score struct {
	Fitness     float64
	DistError   float64
	Spread      float64
	GaitChurn   float64
	Fallback    float64
	LostContact float64
	PathRate    float64
	Danger      float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
	}
}

// LastScore returns the score breakdown from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel; each run owns its own Game.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		slog.Debug("candidate rejected", "error", err)
		fe.mu.Lock()
		fe.lastScore = Score{Fitness: invalidFitness}
		fe.mu.Unlock()
		return invalidFitness
	}

	scores := make([]Score, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(cfg.Clone(), s)
			if err != nil {
				slog.Warn("simulation failed", "seed", s, "error", err)
				scores[idx] = Score{Fitness: invalidFitness}
				return
			}
			scores[idx] = computeScore(cfg, windows)
		}(i, seed)
	}
	wg.Wait()

	avg := averageScores(scores)
	fe.mu.Lock()
	fe.lastScore = avg
	fe.mu.Unlock()
	return avg.Fitness
}

// runSimulation executes a single headless run and returns its telemetry windows.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats
	g, err := game.NewGameWithConfig(cfg, game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	return windows, nil
}

// computeScore turns telemetry windows into a weighted fitness.
// The ideal is agents holding the planned follow distance with few gait flips,
// few fallbacks, no lost contact and modest path traffic.
func computeScore(cfg *config.Config, windows []telemetry.WindowStats) Score {
	if len(windows) <= fitnessWarmupWindows {
		return Score{Fitness: invalidFitness}
	}
	valid := windows[fitnessWarmupWindows:]

	desired := math.Hypot(cfg.Anchor.BehindDistance, cfg.Anchor.SideDistance)

	var distErr, spread, weights []float64
	var churn, fallback, lost, pathRate, danger float64
	var engagedSec float64
	for _, w := range valid {
		dur := float64(w.WindowEndTick-w.WindowStartTick) * cfg.Derived.DT
		engagedSec += float64(w.Engaged) * dur
		fallback += w.FallbackRate
		pathRate += w.PathRate
		lost += float64(w.DisengageOutOfRange)
		churn += float64(w.GaitChanges)
		danger += float64(w.DangerTicks)
		if w.Engaged == 0 {
			continue
		}
		distErr = append(distErr, math.Abs(w.DistP50-desired))
		spread = append(spread, w.DistP90-w.DistP10)
		weights = append(weights, float64(w.Engaged))
	}

	n := float64(len(valid))
	s := Score{
		Fallback: fallback / n,
		PathRate: pathRate / n,
	}
	if engagedSec > 0 {
		s.GaitChurn = churn / engagedSec
		s.LostContact = lost / engagedSec * 60 // per engaged agent-minute
		s.Danger = danger / (engagedSec / cfg.Derived.DT)
	}
	if len(distErr) == 0 {
		// Nobody ever followed anything
		s.Fitness = invalidFitness
		return s
	}
	s.DistError = stat.Mean(distErr, weights)
	s.Spread = stat.Mean(spread, weights)

	s.Fitness = weightDistError*s.DistError +
		weightSpread*s.Spread +
		weightGaitChurn*s.GaitChurn +
		weightFallback*s.Fallback +
		weightLostContact*s.LostContact +
		weightPathRate*s.PathRate +
		weightDanger*s.Danger
	return s
}

func averageScores(scores []Score) Score {
	var avg Score
	for _, s := range scores {
		avg.Fitness += s.Fitness
		avg.DistError += s.DistError
		avg.Spread += s.Spread
		avg.GaitChurn += s.GaitChurn
		avg.Fallback += s.Fallback
		avg.LostContact += s.LostContact
		avg.PathRate += s.PathRate
		avg.Danger += s.Danger
	}
	n := float64(len(scores))
	if n == 0 {
		return Score{Fitness: invalidFitness}
	}
	avg.Fitness /= n
	avg.DistError /= n
	avg.Spread /= n
	avg.GaitChurn /= n
	avg.Fallback /= n
	avg.LostContact /= n
	avg.PathRate /= n
	avg.Danger /= n
	return avg
}
