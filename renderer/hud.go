package renderer

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/companion/game"
	"github.com/pthm-cable/companion/locomotion"
)

const (
	panelWidth  = 240
	panelMargin = 10
	maxSpeed    = 20
	eventLines  = 12
)

// drawHUD draws the status line in the top right corner.
func (v *View) drawHUD(g *game.Game, agents []game.AgentView) {
	engaged := 0
	for i := range agents {
		if agents[i].Engaged {
			engaged++
		}
	}
	perf := g.PerfStats()

	x := int32(v.screenWidth) - 260
	rl.DrawText(fmt.Sprintf("Tick: %d", g.Tick()), x, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Engaged: %d/%d", engaged, len(agents)), x, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]", g.StepsPerUpdate()), x, 60, 20, rl.White)
	rl.DrawText(fmt.Sprintf("FPS: %.0f  TPS: %.0f", perf.FPS, perf.TicksPerSecond), x, 85, 16, rl.LightGray)
	if g.Paused() {
		rl.DrawText("PAUSED", x, 105, 20, rl.Yellow)
	}
	if v.showPanel {
		drawPhases(g, x, 130)
	}
}

// drawPanel draws the raygui control panel, selection details and event log.
func (v *View) drawPanel(g *game.Game) {
	x := float32(panelMargin)
	y := float32(panelMargin)
	w := float32(panelWidth)

	rl.DrawRectangle(0, 0, int32(w+2*panelMargin), int32(v.screenHeight), rl.Color{R: 0, G: 0, B: 0, A: 170})

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w/2 - 4, Height: 28}, toggleText(g.Paused(), "Resume", "Pause")) {
		g.SetPaused(!g.Paused())
	}
	if gui.Button(rl.Rectangle{X: x + w/2 + 4, Y: y, Width: w/2 - 4, Height: 28}, "Step") {
		g.Step()
	}
	y += 38

	rl.DrawText("Steps per frame", int32(x), int32(y), 14, rl.LightGray)
	y += 18
	speed := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: w - 70, Height: 18},
		"1", fmt.Sprint(maxSpeed),
		float32(g.StepsPerUpdate()), 1, maxSpeed,
	)
	if s := int(math.Round(float64(speed))); s != g.StepsPerUpdate() {
		g.SetStepsPerUpdate(s)
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w/3 - 4, Height: 24}, toggleText(v.showPaths, "Paths*", "Paths")) {
		v.showPaths = !v.showPaths
	}
	if gui.Button(rl.Rectangle{X: x + w/3, Y: y, Width: w/3 - 4, Height: 24}, toggleText(v.showAnchors, "Anchors*", "Anchors")) {
		v.showAnchors = !v.showAnchors
	}
	if gui.Button(rl.Rectangle{X: x + 2*w/3, Y: y, Width: w/3 - 4, Height: 24}, toggleText(v.showRadii, "Radii*", "Radii")) {
		v.showRadii = !v.showRadii
	}
	y += 36

	y = v.drawSelection(g, x, y)
	v.drawEvents(g, x, y+10)
}

// drawSelection shows the selected agent's session. Returns the next free row.
func (v *View) drawSelection(g *game.Game, x, y float32) float32 {
	line := func(text string, c rl.Color) {
		rl.DrawText(text, int32(x), int32(y), 14, c)
		y += 18
	}

	if !v.hasSelected {
		line("Click an agent to inspect", rl.Gray)
		line("Right click a target to assign", rl.Gray)
		return y
	}
	a, ok := g.Agent(v.selected)
	if !ok {
		v.hasSelected = false
		return y
	}

	line(fmt.Sprintf("Agent %d%s", a.ID, toggleText(v.trackCamera, " (tracking)", "")), rl.White)
	line(fmt.Sprintf("Pos %.1f %.1f %.1f", a.Pos.X(), a.Pos.Y(), a.Pos.Z()), rl.LightGray)
	if fields, ok := g.InspectAgent(a.ID); ok {
		y = drawFields(fields, x, y)
	}
	if !a.Engaged {
		line("Idle", rl.LightGray)
		return y
	}
	line(fmt.Sprintf("Target %d", a.TargetID), rl.LightGray)
	line(fmt.Sprintf("Gait %s  speed %.3f", a.Gait, a.Speed), gaitColor(&a))
	line(fmt.Sprintf("Anchor %s", a.AnchorKind), rl.LightGray)
	line(fmt.Sprintf("Waypoints %d  settled %t", len(a.Path), a.Settled), rl.LightGray)
	if fields, ok := g.InspectTarget(a.TargetID); ok {
		y = drawFields(fields, x, y)
	}
	return y
}

// drawFields renders inspector fields, as bars where the descriptor asks for one.
func drawFields(fields []game.Field, x, y float32) float32 {
	const labelW, barW, rowH = 70, 110, 16
	for _, f := range fields {
		rl.DrawText(f.Label, int32(x), int32(y), 12, rl.Gray)
		if f.Bar && f.Max > f.Min {
			bx := int32(x) + labelW
			rl.DrawRectangle(bx, int32(y)+2, barW, 10, rl.Color{R: 50, G: 50, B: 50, A: 255})
			frac := (f.Value - f.Min) / (f.Max - f.Min)
			frac = math.Max(0, math.Min(1, frac))
			if f.Centered {
				mid := bx + barW/2
				end := bx + int32(frac*barW)
				lo, hi := min(mid, end), max(mid, end)
				rl.DrawRectangle(lo, int32(y)+2, hi-lo, 10, rl.SkyBlue)
			} else {
				rl.DrawRectangle(bx, int32(y)+2, int32(frac*barW), 10, rl.SkyBlue)
			}
		}
		rl.DrawText(f.Text, int32(x)+labelW+barW+6, int32(y), 12, rl.LightGray)
		y += rowH
	}
	return y
}

// drawPhases lists average tick cost per phase under the status line.
func drawPhases(g *game.Game, x, y int32) {
	for _, p := range g.PhaseTimings() {
		rl.DrawText(fmt.Sprintf("%-12s %5dus %4.1f%%", p.Name, p.Avg.Microseconds(), p.Pct), x, y, 12, rl.Gray)
		y += 14
	}
}

// drawEvents lists recent controller events, newest first.
func (v *View) drawEvents(g *game.Game, x, y float32) {
	rl.DrawText("Events", int32(x), int32(y), 16, rl.White)
	y += 20
	for _, e := range g.RecentEvents(eventLines) {
		c := rl.LightGray
		if v.hasSelected && e.AgentID == v.selected {
			c = rl.Yellow
		}
		rl.DrawText(fmt.Sprintf("%d a%d %s", e.Tick, e.AgentID, eventLabel(e)), int32(x), int32(y), 12, c)
		y += 15
	}
}

func eventLabel(e locomotion.Event) string {
	switch e.Type {
	case locomotion.EventGait:
		return fmt.Sprintf("%s %s->%s", e.Type, e.From, e.To)
	case locomotion.EventDisengage:
		return fmt.Sprintf("%s %s", e.Type, e.Reason)
	case locomotion.EventAnchor:
		return fmt.Sprintf("%s %s", e.Type, e.Anchor)
	default:
		return e.Type.String()
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
