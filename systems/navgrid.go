package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/companion/config"
)

// AgentHeight is the headroom a column needs to be walkable.
const AgentHeight = 1.8

// NavGrid stores per-column walkability and standing height for A* pathfinding.
// Moving between neighbours is further limited by the climb limit.
type NavGrid struct {
	blocked  []bool    // true = cannot stand here
	height   []float64 // standing height per column
	width    int
	depth    int
	maxClimb float64
}

// NewNavGridFromTerrain builds a navigation grid from terrain.
// A column is blocked when the water over it is too deep or a slab leaves no headroom.
func NewNavGridFromTerrain(terrain *TerrainSystem, cfg config.PathfindingConfig) *NavGrid {
	w, d := terrain.Width(), terrain.Depth()
	grid := &NavGrid{
		blocked:  make([]bool, w*d),
		height:   make([]float64, w*d),
		width:    w,
		depth:    d,
		maxClimb: cfg.MaxClimb,
	}

	for z := 0; z < d; z++ {
		for x := 0; x < w; x++ {
			i := z*w + x
			grid.height[i] = terrain.CellGround(x, z)

			blocked := false
			if terrain.WaterDepth(x, z) > cfg.MaxWaterDepth {
				blocked = true
			}
			if terrain.Headroom(x, z) < AgentHeight {
				blocked = true
			}
			grid.blocked[i] = blocked
		}
	}

	return grid
}

// IsBlocked returns true if the given column cannot be stood on.
func (g *NavGrid) IsBlocked(gx, gz int) bool {
	if gx < 0 || gx >= g.width || gz < 0 || gz >= g.depth {
		return true // Out of bounds is blocked
	}
	return g.blocked[gz*g.width+gx]
}

// IsBlockedWorld returns true if the world position is over a blocked column.
func (g *NavGrid) IsBlockedWorld(x, z float64) bool {
	gx, gz := g.WorldToGrid(x, z)
	return g.IsBlocked(gx, gz)
}

// Height returns the standing height of a column.
func (g *NavGrid) Height(gx, gz int) float64 {
	if gx < 0 || gx >= g.width || gz < 0 || gz >= g.depth {
		return math.Inf(1)
	}
	return g.height[gz*g.width+gx]
}

// CanStep reports whether an agent may move between two adjacent columns.
func (g *NavGrid) CanStep(ax, az, bx, bz int) bool {
	if g.IsBlocked(ax, az) || g.IsBlocked(bx, bz) {
		return false
	}
	return math.Abs(g.Height(bx, bz)-g.Height(ax, az)) <= g.maxClimb
}

// WorldToGrid converts world coordinates to grid coordinates.
func (g *NavGrid) WorldToGrid(x, z float64) (gx, gz int) {
	gx = int(math.Floor(x))
	gz = int(math.Floor(z))
	return
}

// GridToWorld converts grid coordinates to the standing point at the column centre.
func (g *NavGrid) GridToWorld(gx, gz int) mgl64.Vec3 {
	return mgl64.Vec3{float64(gx) + 0.5, g.Height(gx, gz), float64(gz) + 0.5}
}

// Width returns the grid size along X.
func (g *NavGrid) Width() int { return g.width }

// Depth returns the grid size along Z.
func (g *NavGrid) Depth() int { return g.depth }
