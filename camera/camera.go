// Package camera provides a top-down 2D camera over the sandbox's XZ plane.
package camera

// Camera controls the viewport into the sandbox.
// World X maps to screen X and world Z maps to screen Y. The world is bounded,
// so the camera centre is clamped to keep the view over the terrain.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Z float32

	// Zoom is screen pixels per world unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions in cells
	WorldW, WorldD float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	defaultZoom float32
}

// New creates a camera centered on the world, zoomed so the whole world fits.
func New(viewportW, viewportH, worldW, worldD float32) *Camera {
	fit := min(viewportW/worldW, viewportH/worldD)
	return &Camera{
		X:           worldW / 2,
		Z:           worldD / 2,
		Zoom:        fit,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		WorldW:      worldW,
		WorldD:      worldD,
		MinZoom:     fit,
		MaxZoom:     fit * 16,
		defaultZoom: fit,
	}
}

// WorldToScreen converts world XZ coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wz float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wz-c.Z)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world XZ coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wz float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wz = c.Z + (sy-c.ViewportH/2)/c.Zoom
	return wx, wz
}

// IsVisible returns true if a circle at (wx, wz) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wz, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wz-c.Z) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = min(viewportW/c.WorldW, viewportH/c.WorldD)
	c.defaultZoom = c.MinZoom
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Z += dy / c.Zoom
	c.clampCenter()
}

// CenterOn moves the camera to a world point.
func (c *Camera) CenterOn(wx, wz float32) {
	c.X, c.Z = wx, wz
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Z = c.WorldD / 2
	c.Zoom = c.defaultZoom
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minZ, maxX, maxZ float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Z - halfH, c.X + halfW, c.Z + halfH
}

// clampCenter keeps the world under the viewport. When the view is larger than
// the world along an axis, the world is centred on that axis.
func (c *Camera) clampCenter() {
	c.X = clampAxis(c.X, c.ViewportW/(2*c.Zoom), c.WorldW)
	c.Z = clampAxis(c.Z, c.ViewportH/(2*c.Zoom), c.WorldD)
}

func clampAxis(center, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(center, half, size-half)
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
