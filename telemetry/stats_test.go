package telemetry

import (
	"math"
	"testing"
)

func TestComputeDistanceStats(t *testing.T) {
	values := []float64{10, 3, 7, 1, 5, 9, 2, 8, 4, 6}
	got := ComputeDistanceStats(values)

	if math.Abs(got.Mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", got.Mean)
	}
	if math.Abs(got.Std-math.Sqrt(8.25)) > 1e-9 {
		t.Errorf("std = %v, want %v", got.Std, math.Sqrt(8.25))
	}
	if got.P10 != 1 || got.P50 != 5 || got.P90 != 9 {
		t.Errorf("percentiles = %v/%v/%v, want 1/5/9", got.P10, got.P50, got.P90)
	}

	// Input order must be preserved
	if values[0] != 10 {
		t.Error("ComputeDistanceStats sorted its input in place")
	}
}

func TestComputeDistanceStatsEmpty(t *testing.T) {
	if got := ComputeDistanceStats(nil); got != (DistanceStats{}) {
		t.Errorf("empty input = %+v, want zeros", got)
	}
}
