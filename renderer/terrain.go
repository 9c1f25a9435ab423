// Package renderer draws the sandbox from above with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/companion/camera"
	"github.com/pthm-cable/companion/systems"
)

// TerrainRenderer bakes the heightfield into a one-pixel-per-cell texture.
type TerrainRenderer struct {
	texture     rl.Texture2D
	width       int
	depth       int
	initialized bool
}

// NewTerrainRenderer creates a terrain renderer. The texture is built on first draw.
func NewTerrainRenderer() *TerrainRenderer {
	return &TerrainRenderer{}
}

// Rebuild re-bakes the texture, e.g. after terrain edits.
func (r *TerrainRenderer) Rebuild(terrain *systems.TerrainSystem) {
	r.Unload()
	r.width = terrain.Width()
	r.depth = terrain.Depth()

	minH, maxH := heightRange(terrain)
	span := maxH - minH
	if span <= 0 {
		span = 1
	}

	img := rl.GenImageColor(r.width, r.depth, rl.Black)
	for z := 0; z < r.depth; z++ {
		for x := 0; x < r.width; x++ {
			shade := float32((terrain.CellGround(x, z) - minH) / span)
			rl.ImageDrawPixel(img, int32(x), int32(z), cellColor(terrain, x, z, shade))
		}
	}
	r.texture = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.texture, rl.FilterPoint)
	rl.UnloadImage(img)
	r.initialized = true
}

// Draw renders the terrain under the camera.
func (r *TerrainRenderer) Draw(terrain *systems.TerrainSystem, cam *camera.Camera) {
	if terrain == nil {
		return
	}
	if !r.initialized {
		r.Rebuild(terrain)
	}

	sx, sy := cam.WorldToScreen(0, 0)
	src := rl.Rectangle{Width: float32(r.width), Height: float32(r.depth)}
	dst := rl.Rectangle{X: sx, Y: sy, Width: float32(r.width) * cam.Zoom, Height: float32(r.depth) * cam.Zoom}
	rl.DrawTexturePro(r.texture, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload releases the GPU texture.
func (r *TerrainRenderer) Unload() {
	if r.initialized {
		rl.UnloadTexture(r.texture)
		r.initialized = false
	}
}

func heightRange(terrain *systems.TerrainSystem) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for z := 0; z < terrain.Depth(); z++ {
		for x := 0; x < terrain.Width(); x++ {
			h := terrain.CellGround(x, z)
			lo = math.Min(lo, h)
			hi = math.Max(hi, h)
		}
	}
	return lo, hi
}

// cellColor shades a column by type and relative height. Roofed columns are darkened.
func cellColor(terrain *systems.TerrainSystem, x, z int, shade float32) rl.Color {
	var c rl.Color
	switch terrain.Cell(x, z) {
	case systems.TerrainWall:
		g := uint8(90 + shade*80)
		c = rl.Color{R: g, G: g, B: g + 10, A: 255}
	case systems.TerrainWater:
		depth := float32(math.Min(terrain.WaterDepth(x, z)/3, 1))
		c = rl.Color{R: 20, G: uint8(90 - depth*50), B: uint8(170 - depth*60), A: 255}
	default:
		c = rl.Color{R: uint8(60 + shade*70), G: uint8(110 + shade*80), B: uint8(50 + shade*30), A: 255}
	}
	if _, roofed := terrain.Roof(x, z); roofed {
		c.R, c.G, c.B = c.R/2, c.G/2, c.B/2
	}
	return c
}
