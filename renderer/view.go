package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/companion/camera"
	"github.com/pthm-cable/companion/game"
	"github.com/pthm-cable/companion/locomotion"
)

// pickRadius is the click distance in screen pixels for selecting an actor.
const pickRadius = 14

// View draws a Game and routes keyboard and mouse input to it.
type View struct {
	camera  *camera.Camera
	terrain *TerrainRenderer

	screenWidth  float32
	screenHeight float32

	selected    uint64
	hasSelected bool
	trackCamera bool

	showPaths   bool
	showAnchors bool
	showRadii   bool
	showPanel   bool
}

// NewView creates a view over g for a screen of the given size.
func NewView(g *game.Game, screenWidth, screenHeight int) *View {
	w, h := float32(screenWidth), float32(screenHeight)
	return &View{
		camera:       camera.New(w, h, float32(g.Terrain().Width()), float32(g.Terrain().Depth())),
		terrain:      NewTerrainRenderer(),
		screenWidth:  w,
		screenHeight: h,
		showPaths:    true,
		showAnchors:  true,
		showPanel:    true,
	}
}

// Unload releases GPU resources.
func (v *View) Unload() {
	v.terrain.Unload()
}

// HandleInput processes keyboard and mouse input.
func (v *View) HandleInput(g *game.Game) {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.SetPaused(!g.Paused())
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.SetStepsPerUpdate(g.StepsPerUpdate() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.StepsPerUpdate() < maxSpeed {
		g.SetStepsPerUpdate(g.StepsPerUpdate() + 1)
	}

	// Overlay toggles
	if rl.IsKeyPressed(rl.KeyP) {
		v.showPaths = !v.showPaths
	}
	if rl.IsKeyPressed(rl.KeyA) {
		v.showAnchors = !v.showAnchors
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.showRadii = !v.showRadii
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.showPanel = !v.showPanel
	}
	if rl.IsKeyPressed(rl.KeyT) && v.hasSelected {
		v.trackCamera = !v.trackCamera
	}
	if rl.IsKeyPressed(rl.KeyC) {
		v.hasSelected = false
		v.trackCamera = false
	}

	v.handleCameraInput()
	v.handleMouse(g)

	if v.trackCamera {
		if a, ok := g.Agent(v.selected); ok {
			v.camera.CenterOn(float32(a.Pos.X()), float32(a.Pos.Z()))
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (v *View) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h
	v.camera.Resize(w, h)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *View) handleCameraInput() {
	const panSpeed = 8.0

	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
		v.trackCamera = false
	}
}

// handleMouse selects agents with the left button and assigns the selected
// agent to a target with the right button.
func (v *View) handleMouse(g *game.Game) {
	mouse := rl.GetMousePosition()
	if v.showPanel && mouse.X < panelWidth+2*panelMargin {
		return
	}
	wx, wz := v.camera.ScreenToWorld(mouse.X, mouse.Y)
	radius := float64(pickRadius / v.camera.Zoom)

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		v.selected, v.hasSelected = g.AgentAt(float64(wx), float64(wz), radius)
		if !v.hasSelected {
			v.trackCamera = false
		}
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) && v.hasSelected {
		if id, ok := g.TargetAt(float64(wx), float64(wz), radius); ok {
			_ = g.Assign(v.selected, id)
		}
	}
}

// Draw renders the game.
func (v *View) Draw(g *game.Game) {
	g.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	v.terrain.Draw(g.Terrain(), v.camera)

	agents := g.Agents()
	targets := g.Targets()

	if v.showPaths {
		for i := range agents {
			v.drawPath(&agents[i])
		}
	}
	for i := range targets {
		v.drawTarget(&targets[i])
	}
	for i := range agents {
		v.drawAgent(g, &agents[i])
	}

	v.drawHUD(g, agents)
	if v.showPanel {
		v.drawPanel(g)
	}

	rl.EndDrawing()
}

func (v *View) screen(x, z float64) rl.Vector2 {
	sx, sy := v.camera.WorldToScreen(float32(x), float32(z))
	return rl.Vector2{X: sx, Y: sy}
}

func (v *View) drawTarget(t *game.TargetView) {
	if !v.camera.IsVisible(float32(t.Pos.X()), float32(t.Pos.Z()), 2) {
		return
	}
	c := rl.Orange
	switch {
	case !t.Alive:
		c = rl.DarkGray
	case t.Spectator:
		c = rl.Fade(rl.Purple, 0.6)
	case t.Sprinting:
		c = rl.Red
	}
	center := v.screen(t.Pos.X(), t.Pos.Z())
	r := 0.4 * v.camera.Zoom
	rl.DrawCircleV(center, r, c)
	look := v.screen(t.Pos.X()+t.Look.X(), t.Pos.Z()+t.Look.Z())
	rl.DrawLineEx(center, look, 2, rl.White)
}

func (v *View) drawAgent(g *game.Game, a *game.AgentView) {
	if !v.camera.IsVisible(float32(a.Pos.X()), float32(a.Pos.Z()), 2) {
		return
	}
	center := v.screen(a.Pos.X(), a.Pos.Z())

	if v.showAnchors && a.Engaged {
		anchor := v.screen(a.Anchor.X(), a.Anchor.Z())
		c := rl.SkyBlue
		if a.AnchorKind == locomotion.AnchorFallback {
			c = rl.Red
		}
		rl.DrawCircleLinesV(anchor, 0.35*v.camera.Zoom, c)
		rl.DrawLineEx(center, anchor, 1, rl.Fade(c, 0.5))
	}

	selected := v.hasSelected && a.ID == v.selected
	if selected || v.showRadii {
		follow := g.Config().Follow
		rl.DrawCircleLinesV(center, float32(follow.EngageRadius)*v.camera.Zoom, rl.Fade(rl.Green, 0.4))
		rl.DrawCircleLinesV(center, float32(follow.ContinueRadius)*v.camera.Zoom, rl.Fade(rl.Yellow, 0.3))
	}

	drawOrientedTriangle(center, float32(a.BodyYaw), 0.45*v.camera.Zoom, gaitColor(a))
	if selected {
		rl.DrawCircleLinesV(center, 0.8*v.camera.Zoom, rl.White)
	}
}

func (v *View) drawPath(a *game.AgentView) {
	if len(a.Path) == 0 {
		return
	}
	prev := v.screen(a.Pos.X(), a.Pos.Z())
	for _, wp := range a.Path {
		next := v.screen(wp.X(), wp.Z())
		rl.DrawLineEx(prev, next, 1.5, rl.Fade(rl.RayWhite, 0.5))
		prev = next
	}
}

// gaitColor colours an agent by gait mode. Idle and settled agents are grey.
func gaitColor(a *game.AgentView) rl.Color {
	if !a.Engaged {
		return rl.LightGray
	}
	if a.Settled {
		return rl.Gray
	}
	switch a.Gait {
	case locomotion.GaitRun:
		return rl.Gold
	case locomotion.GaitRunJump:
		return rl.Magenta
	default:
		return rl.Lime
	}
}

// drawOrientedTriangle draws a triangle pointing along yaw (measured from +X toward +Z).
func drawOrientedTriangle(center rl.Vector2, yaw, radius float32, color rl.Color) {
	point := func(angle, r float32) rl.Vector2 {
		return rl.Vector2{
			X: center.X + float32(math.Cos(float64(angle)))*r,
			Y: center.Y + float32(math.Sin(float64(angle)))*r,
		}
	}
	front := point(yaw, radius*1.5)
	backLeft := point(yaw+math.Pi*0.8, radius)
	backRight := point(yaw-math.Pi*0.8, radius)

	// DrawTriangle requires counter-clockwise winding
	rl.DrawTriangle(front, backRight, backLeft, color)
	rl.DrawTriangleLines(front, backLeft, backRight, rl.White)
}
