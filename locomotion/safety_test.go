package locomotion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSafetyClassify(t *testing.T) {
	probe := NewSafetyProbe(DefaultParams().Safety)

	tests := []struct {
		name   string
		ground func(x, z float64) (float64, bool)
		toward mgl64.Vec3
		want   Risk
	}{
		{
			name:   "flat ground is safe",
			toward: mgl64.Vec3{5, 0, 0},
			want:   RiskSafe,
		},
		{
			name:   "small step is safe",
			ground: stepAhead(1),
			toward: mgl64.Vec3{5, 0, 0},
			want:   RiskSafe,
		},
		{
			name:   "moderate drop is caution",
			ground: stepAhead(-2),
			toward: mgl64.Vec3{5, 0, 0},
			want:   RiskCaution,
		},
		{
			name:   "cliff edge is danger",
			ground: stepAhead(-3.5),
			toward: mgl64.Vec3{5, 0, 0},
			want:   RiskDanger,
		},
		{
			name:   "no ground in scan window is danger",
			ground: stepAhead(-10),
			toward: mgl64.Vec3{5, 0, 0},
			want:   RiskDanger,
		},
		{
			name:   "void is danger",
			ground: func(x, _ float64) (float64, bool) { return 0, x < 1 },
			toward: mgl64.Vec3{5, 0, 0},
			want:   RiskDanger,
		},
		{
			name:   "drop behind is ignored",
			ground: stepAhead(-10),
			toward: mgl64.Vec3{-5, 0, 0},
			want:   RiskSafe,
		},
		{
			name:   "vertical only direction is safe",
			ground: stepAhead(-10),
			toward: mgl64.Vec3{0, -5, 0},
			want:   RiskSafe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(mgl64.Vec3{})
			h.world.ground = tt.ground
			if got := probe.Classify(h.ctx(), mgl64.Vec3{}, tt.toward); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

// stepAhead returns ground at 0 for x < 1 and at height beyond.
func stepAhead(height float64) func(x, z float64) (float64, bool) {
	return func(x, _ float64) (float64, bool) {
		if x < 1 {
			return 0, true
		}
		return height, true
	}
}

func TestRiskString(t *testing.T) {
	for r, want := range map[Risk]string{RiskSafe: "SAFE", RiskCaution: "CAUTION", RiskDanger: "DANGER"} {
		if r.String() != want {
			t.Errorf("%d.String() = %q, want %q", r, r.String(), want)
		}
	}
}
