package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/companion/config"
)

// TerrainCell is one column of the heightfield.
type TerrainCell uint8

const (
	TerrainGround TerrainCell = iota
	TerrainWall               // Raised ridge, taller than a step
	TerrainWater              // Ground below the water level
)

const (
	// Column surfaces are quantized so neighbouring cells form steps.
	heightQuantum = 0.5
	// Thickness of overhead slabs.
	roofThickness = 1.0
	losStep       = 0.25
)

// TerrainSystem is a heightfield world: each integer (x, z) column has a ground
// surface, an optional overhead slab, and may be flooded below the water level.
// Everything outside the grid is solid.
type TerrainSystem struct {
	width, depth int
	ground       []float64
	cells        []TerrainCell
	roofBottom   []float64 // NaN where there is no slab
	waterLevel   float64
	noise        opensimplex.Noise
	detail       opensimplex.Noise
}

// NewTerrainSystem generates terrain from the world config.
func NewTerrainSystem(cfg config.WorldConfig, seed int64) *TerrainSystem {
	t := newTerrain(cfg.Width, cfg.Depth, cfg.BaseHeight)
	t.waterLevel = cfg.WaterLevel
	t.noise = opensimplex.New(seed)
	t.detail = opensimplex.NewNormalized(seed + 1)
	t.Generate(cfg)
	return t
}

// NewFlatTerrain creates a flat, dry, open world at the given height.
func NewFlatTerrain(width, depth int, height float64) *TerrainSystem {
	return newTerrain(width, depth, height)
}

func newTerrain(width, depth int, height float64) *TerrainSystem {
	n := width * depth
	t := &TerrainSystem{
		width:      width,
		depth:      depth,
		ground:     make([]float64, n),
		cells:      make([]TerrainCell, n),
		roofBottom: make([]float64, n),
	}
	for i := range t.ground {
		t.ground[i] = height
		t.roofBottom[i] = math.NaN()
	}
	return t
}

// Generate fills the heightfield from noise.
func (t *TerrainSystem) Generate(cfg config.WorldConfig) {
	for z := 0; z < t.depth; z++ {
		for x := 0; x < t.width; x++ {
			fx := float64(x) * cfg.NoiseScale
			fz := float64(z) * cfg.NoiseScale

			// Rolling ground
			h := cfg.BaseHeight + cfg.Relief*t.noise.Eval2(fx, fz)
			cell := TerrainGround

			// Ridged noise forms thin wall lines
			ridge := 1 - math.Abs(t.noise.Eval2(fx*2.3+31.7, fz*2.3-12.1))
			if ridge > cfg.WallDensity {
				h += cfg.WallHeight
				cell = TerrainWall
			}

			h = quantize(h)
			i := t.index(x, z)
			t.ground[i] = h
			t.roofBottom[i] = math.NaN()

			if cell == TerrainGround && t.waterLevel > 0 && h < t.waterLevel {
				cell = TerrainWater
			}
			t.cells[i] = cell

			// Overhead slabs over dry ground
			if cell == TerrainGround && t.detail.Eval2(fx*1.7+97, fz*1.7+53) > cfg.RoofDensity {
				t.roofBottom[i] = h + cfg.RoofClearance
			}
		}
	}
}

func quantize(h float64) float64 {
	return math.Round(h/heightQuantum) * heightQuantum
}

func (t *TerrainSystem) index(x, z int) int {
	return z*t.width + x
}

func (t *TerrainSystem) inBounds(x, z int) bool {
	return x >= 0 && x < t.width && z >= 0 && z < t.depth
}

func cellOf(pos mgl64.Vec3) (int, int) {
	return int(math.Floor(pos.X())), int(math.Floor(pos.Z()))
}

// Width returns the number of columns along X.
func (t *TerrainSystem) Width() int { return t.width }

// Depth returns the number of columns along Z.
func (t *TerrainSystem) Depth() int { return t.depth }

// WaterLevel returns the liquid surface height, or 0 for a dry world.
func (t *TerrainSystem) WaterLevel() float64 { return t.waterLevel }

// GroundAt returns the ground surface of the column containing (x, z).
// Out-of-bounds columns report +Inf.
func (t *TerrainSystem) GroundAt(x, z float64) float64 {
	cx, cz := int(math.Floor(x)), int(math.Floor(z))
	if !t.inBounds(cx, cz) {
		return math.Inf(1)
	}
	return t.ground[t.index(cx, cz)]
}

// CellGround returns the ground height of column (x, z).
func (t *TerrainSystem) CellGround(x, z int) float64 {
	if !t.inBounds(x, z) {
		return math.Inf(1)
	}
	return t.ground[t.index(x, z)]
}

// Cell returns the column type.
func (t *TerrainSystem) Cell(x, z int) TerrainCell {
	if !t.inBounds(x, z) {
		return TerrainWall
	}
	return t.cells[t.index(x, z)]
}

// Roof returns the bottom of the overhead slab of column (x, z).
func (t *TerrainSystem) Roof(x, z int) (float64, bool) {
	if !t.inBounds(x, z) {
		return 0, false
	}
	b := t.roofBottom[t.index(x, z)]
	return b, !math.IsNaN(b)
}

// SetGround sets the ground height of a column.
func (t *TerrainSystem) SetGround(x, z int, h float64) {
	if !t.inBounds(x, z) {
		return
	}
	i := t.index(x, z)
	t.ground[i] = h
	t.cells[i] = TerrainGround
	if t.waterLevel > 0 && h < t.waterLevel {
		t.cells[i] = TerrainWater
	}
}

// SetWall raises a column by height and marks it as wall.
func (t *TerrainSystem) SetWall(x, z int, height float64) {
	if !t.inBounds(x, z) {
		return
	}
	i := t.index(x, z)
	t.ground[i] += height
	t.cells[i] = TerrainWall
}

// SetRoof places an overhead slab with its bottom at the given height.
func (t *TerrainSystem) SetRoof(x, z int, bottom float64) {
	if t.inBounds(x, z) {
		t.roofBottom[t.index(x, z)] = bottom
	}
}

// SetWaterLevel floods every column whose ground is below level.
func (t *TerrainSystem) SetWaterLevel(level float64) {
	t.waterLevel = level
	for i, h := range t.ground {
		if t.cells[i] == TerrainWall {
			continue
		}
		if level > 0 && h < level {
			t.cells[i] = TerrainWater
		} else {
			t.cells[i] = TerrainGround
		}
	}
}

// IsSolidAt reports whether pos is inside ground, a slab, or outside the world.
func (t *TerrainSystem) IsSolidAt(pos mgl64.Vec3) bool {
	x, z := cellOf(pos)
	if !t.inBounds(x, z) {
		return true
	}
	i := t.index(x, z)
	y := pos.Y()
	if y < t.ground[i] {
		return true
	}
	b := t.roofBottom[i]
	return !math.IsNaN(b) && y >= b && y < b+roofThickness
}

// IsOutdoorAt reports whether pos has open sky above it.
func (t *TerrainSystem) IsOutdoorAt(pos mgl64.Vec3) bool {
	x, z := cellOf(pos)
	if !t.inBounds(x, z) {
		return false
	}
	b := t.roofBottom[t.index(x, z)]
	return math.IsNaN(b) || pos.Y() >= b+roofThickness
}

// GroundHeightNear scans the column of pos from up cells above down to down cells
// below and returns the first standable surface.
func (t *TerrainSystem) GroundHeightNear(pos mgl64.Vec3, up, down int) (float64, bool) {
	x, z := cellOf(pos)
	if !t.inBounds(x, z) {
		return 0, false
	}
	i := t.index(x, z)
	top := pos.Y() + float64(up)
	bottom := pos.Y() - float64(down)

	// Slab tops are checked first since scanning runs downward.
	if b := t.roofBottom[i]; !math.IsNaN(b) {
		s := b + roofThickness
		if s <= top && s >= bottom {
			return s, true
		}
	}
	g := t.ground[i]
	if g <= top && g >= bottom {
		return g, true
	}
	return 0, false
}

// LineOfSightClear marches from one point to another and reports whether no solid
// space lies between them.
func (t *TerrainSystem) LineOfSightClear(from, to mgl64.Vec3) bool {
	d := to.Sub(from)
	dist := d.Len()
	if dist < 1e-9 {
		return !t.IsSolidAt(from)
	}
	steps := int(dist/losStep) + 1
	step := d.Mul(1 / float64(steps))
	p := from
	for i := 0; i <= steps; i++ {
		if t.IsSolidAt(p) {
			return false
		}
		p = p.Add(step)
	}
	return true
}

// InLiquid reports whether pos is under the water surface over a flooded column.
func (t *TerrainSystem) InLiquid(pos mgl64.Vec3) bool {
	if t.waterLevel <= 0 {
		return false
	}
	x, z := cellOf(pos)
	return t.inBounds(x, z) && t.cells[t.index(x, z)] == TerrainWater && pos.Y() < t.waterLevel
}

// WaterDepth returns how deep the water is over column (x, z).
func (t *TerrainSystem) WaterDepth(x, z int) float64 {
	if !t.inBounds(x, z) || t.waterLevel <= 0 {
		return 0
	}
	return math.Max(0, t.waterLevel-t.ground[t.index(x, z)])
}

// Headroom returns the free height above the ground of column (x, z).
func (t *TerrainSystem) Headroom(x, z int) float64 {
	b, ok := t.Roof(x, z)
	if !ok {
		return math.Inf(1)
	}
	return b - t.CellGround(x, z)
}

// Center returns the standing point at the middle of column (x, z).
func (t *TerrainSystem) Center(x, z int) mgl64.Vec3 {
	return mgl64.Vec3{float64(x) + 0.5, t.CellGround(x, z), float64(z) + 0.5}
}
