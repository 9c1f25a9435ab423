package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/companion/components"
)

func TestSpatialGridQuery(t *testing.T) {
	w := ecs.NewWorld()
	posMap := ecs.NewMap1[components.Position](w)
	grid := NewSpatialGrid(64, 64, 8)

	points := []mgl64.Vec3{
		{10, 0, 10}, // origin
		{14, 5, 10}, // 4 away horizontally, height ignored
		{30, 0, 30}, // far
		{-3, 0, 10}, // outside the world, clamped into the edge cell
	}
	entities := make([]ecs.Entity, len(points))
	for i, p := range points {
		pos := components.Position{}
		pos.Set(p)
		entities[i] = posMap.NewEntity(&pos)
		grid.Insert(entities[i], p)
	}

	got := grid.QueryRadiusInto(nil, mgl64.Vec3{10, 0, 10}, 5, posMap)
	if len(got) != 2 {
		t.Fatalf("Expected 2 neighbors, got %d", len(got))
	}
	for _, n := range got {
		if n.E == entities[2] || n.E == entities[3] {
			t.Errorf("Entity outside radius returned: %v", n.E)
		}
		if n.E == entities[1] && n.DistSq != 16 {
			t.Errorf("DistSq = %v, want 16", n.DistSq)
		}
	}

	grid.Clear()
	if got := grid.QueryRadiusInto(got[:0], mgl64.Vec3{10, 0, 10}, 5, posMap); len(got) != 0 {
		t.Errorf("Cleared grid returned %d neighbors", len(got))
	}
}
