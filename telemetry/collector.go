package telemetry

import (
	"math"

	"github.com/pthm-cable/companion/locomotion"
)

// Collector accumulates controller events within time windows and produces WindowStats.
// It implements locomotion.Observer.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	engages         int
	disengages      map[locomotion.DisengageReason]int
	settles         int
	resumes         int
	gaitChanges     int
	jumps           int
	anchors         int
	anchorFallbacks int
	paths           int
	pathsRejected   int
	dangerTicks     int

	// Agent-to-target distance samples
	distances []float64
}

var _ locomotion.Observer = (*Collector)(nil)

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		disengages:          make(map[locomotion.DisengageReason]int),
	}
}

// Observe counts a controller event.
func (c *Collector) Observe(e locomotion.Event) {
	switch e.Type {
	case locomotion.EventEngage:
		c.engages++
	case locomotion.EventDisengage:
		c.disengages[e.Reason]++
	case locomotion.EventSettle:
		c.settles++
	case locomotion.EventResume:
		c.resumes++
	case locomotion.EventGait:
		c.gaitChanges++
	case locomotion.EventJump:
		c.jumps++
	case locomotion.EventAnchor:
		c.anchors++
		if e.Anchor == locomotion.AnchorFallback {
			c.anchorFallbacks++
		}
	case locomotion.EventPath:
		c.paths++
	case locomotion.EventPathRejected:
		c.pathsRejected++
	case locomotion.EventDanger:
		c.dangerTicks++
	}
}

// RecordDistance samples the distance between an engaged agent and its target.
func (c *Collector) RecordDistance(d float64) {
	c.distances = append(c.distances, d)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// agents is the number of following agents and engaged the number with a live session.
func (c *Collector) Flush(currentTick int64, agents, engaged int) WindowStats {
	dist := ComputeDistanceStats(c.distances)

	var disengages int
	for _, n := range c.disengages {
		disengages += n
	}

	elapsedSec := float64(currentTick-c.windowStartTick) * c.dt
	var pathRate, fallbackRate float64
	if agents > 0 && elapsedSec > 0 {
		pathRate = float64(c.paths) / (float64(agents) * elapsedSec)
	}
	if c.anchors > 0 {
		fallbackRate = float64(c.anchorFallbacks) / float64(c.anchors)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Agents:  agents,
		Engaged: engaged,

		Engages:             c.engages,
		Disengages:          disengages,
		DisengageInvalid:    c.disengages[locomotion.ReasonTargetInvalid],
		DisengageOutOfRange: c.disengages[locomotion.ReasonOutOfRange],
		DisengageReassigned: c.disengages[locomotion.ReasonReassigned],
		DisengagePreempted:  c.disengages[locomotion.ReasonPreempted],
		Settles:             c.settles,
		Resumes:             c.resumes,

		GaitChanges: c.gaitChanges,
		Jumps:       c.jumps,

		AnchorRecomputes: c.anchors,
		AnchorFallbacks:  c.anchorFallbacks,
		FallbackRate:     fallbackRate,
		PathRequests:     c.paths,
		PathsRejected:    c.pathsRejected,
		PathRate:         pathRate,
		DangerTicks:      c.dangerTicks,

		DistMean: dist.Mean,
		DistStd:  dist.Std,
		DistP10:  dist.P10,
		DistP50:  dist.P50,
		DistP90:  dist.P90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.engages = 0
	clear(c.disengages)
	c.settles = 0
	c.resumes = 0
	c.gaitChanges = 0
	c.jumps = 0
	c.anchors = 0
	c.anchorFallbacks = 0
	c.paths = 0
	c.pathsRejected = 0
	c.dangerTicks = 0
	c.distances = c.distances[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
