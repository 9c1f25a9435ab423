package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/companion/components"
)

// Neighbor holds a nearby entity with its squared horizontal distance.
type Neighbor struct {
	E      ecs.Entity
	DistSq float64
}

// SpatialGrid provides cell-based neighbor lookups on the XZ plane.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]ecs.Entity
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, depth, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(depth/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, pos mgl64.Vec3) {
	col, row := g.cellOf(pos.X(), pos.Z())
	g.cells[row*g.cols+col] = append(g.cells[row*g.cols+col], e)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
const MaxQueryResults = 64

// QueryRadiusInto finds entities within radius of center and appends them to dst
// (up to MaxQueryResults). Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, center mgl64.Vec3, radius float64, posMap *ecs.Map1[components.Position]) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol, centerRow := g.cellOf(center.X(), center.Z())
	radiusSq := radius * radius

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		row := centerRow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= g.cols {
				continue
			}
			for _, e := range g.cells[row*g.cols+col] {
				pos := posMap.Get(e)
				if pos == nil {
					continue
				}
				dx := pos.X - center.X()
				dz := pos.Z - center.Z()
				distSq := dx*dx + dz*dz
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: e, DistSq: distSq})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// cellOf returns the clamped cell for a world position.
func (g *SpatialGrid) cellOf(x, z float64) (int, int) {
	col := int(math.Floor(x / g.cellSize))
	row := int(math.Floor(z / g.cellSize))
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
