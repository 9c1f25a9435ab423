package systems

import (
	"container/heap"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/companion/config"
)

// AStarPlanner provides A* pathfinding over a navigation grid.
// Searches are limited both in expanded nodes and in searches per tick, which
// makes it an expensive, rate-limited backend from the controller's point of view.
type AStarPlanner struct {
	grid *NavGrid

	maxNodes         int
	searchesPerTick  int
	reachTolerance   float64
	searchesThisTick int

	stats PlannerStats

	// Reusable data structures (cleared between searches)
	openHeap  *nodeHeap
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]float64
}

// PlannerStats counts planner activity since the last reset.
type PlannerStats struct {
	Searches     int // Searches run
	Reached      int // Searches whose path ends at the goal
	Partial      int // Searches that ended short of the goal
	Failed       int // Searches with no usable path
	BudgetDenied int // Requests refused by the per-tick budget
	Expanded     int // Nodes expanded
}

// PlannedPath is the result of a search.
type PlannedPath struct {
	Waypoints []mgl64.Vec3 // Standing points in world coordinates, start excluded
	Goal      mgl64.Vec3   // Requested goal
	Reached   bool         // Path end is within reach tolerance of the goal
}

// astarNode is a node in the A* search.
type astarNode struct {
	gx, gz int
	f      float64 // f = g + h (priority)
	index  int     // Heap index
}

// nodeHeap implements heap.Interface for A* open set.
type nodeHeap []*astarNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// NewAStarPlanner creates a planner over grid.
func NewAStarPlanner(grid *NavGrid, cfg config.PathfindingConfig) *AStarPlanner {
	return &AStarPlanner{
		grid:            grid,
		maxNodes:        cfg.MaxSearchNodes,
		searchesPerTick: cfg.SearchesPerTick,
		reachTolerance:  cfg.ReachTolerance,
		openHeap:        &nodeHeap{},
		closedSet:       make(map[int]struct{}, 256),
		cameFrom:        make(map[int]int, 256),
		gScore:          make(map[int]float64, 256),
	}
}

// SetConfig applies the search limits from a reloaded config. The grid is built
// once from terrain and is not rebuilt.
func (a *AStarPlanner) SetConfig(cfg config.PathfindingConfig) {
	a.maxNodes = cfg.MaxSearchNodes
	a.searchesPerTick = cfg.SearchesPerTick
	a.reachTolerance = cfg.ReachTolerance
}

// Grid returns the navigation grid.
func (a *AStarPlanner) Grid() *NavGrid { return a.grid }

// BeginTick resets the per-tick search budget.
func (a *AStarPlanner) BeginTick() {
	a.searchesThisTick = 0
}

// Stats returns activity counters.
func (a *AStarPlanner) Stats() PlannerStats { return a.stats }

// ResetStats clears activity counters.
func (a *AStarPlanner) ResetStats() { a.stats = PlannerStats{} }

// FindPath computes a path from start to goal.
// Returns nil when the per-tick budget is spent or no step can be made toward the goal.
// A path that gets closer but cannot arrive is returned with Reached false.
func (a *AStarPlanner) FindPath(start, goal mgl64.Vec3) *PlannedPath {
	if a.searchesPerTick > 0 && a.searchesThisTick >= a.searchesPerTick {
		a.stats.BudgetDenied++
		return nil
	}
	a.searchesThisTick++
	a.stats.Searches++

	grid := a.grid
	startGX, startGZ := grid.WorldToGrid(start.X(), start.Z())
	goalGX, goalGZ := grid.WorldToGrid(goal.X(), goal.Z())

	if grid.IsBlocked(startGX, startGZ) {
		// Try to find nearest unblocked cell for start
		startGX, startGZ = a.findNearestOpen(startGX, startGZ)
		if startGX < 0 {
			a.stats.Failed++
			return nil
		}
	}
	if grid.IsBlocked(goalGX, goalGZ) {
		goalGX, goalGZ = a.findNearestOpen(goalGX, goalGZ)
		if goalGX < 0 {
			a.stats.Failed++
			return nil
		}
	}

	// Same cell - no path needed
	if startGX == goalGX && startGZ == goalGZ {
		return a.finish(goal, []mgl64.Vec3{grid.GridToWorld(goalGX, goalGZ)})
	}

	// Clear reusable data structures
	*a.openHeap = (*a.openHeap)[:0]
	clear(a.closedSet)
	clear(a.cameFrom)
	clear(a.gScore)

	w := grid.Width()
	startID := startGZ*w + startGX
	goalID := goalGZ*w + goalGX

	a.gScore[startID] = 0
	heap.Push(a.openHeap, &astarNode{gx: startGX, gz: startGZ, f: a.heuristic(startGX, startGZ, goalGX, goalGZ)})

	// Closest explored node, used for a partial path when the goal is out of reach.
	bestID := startID
	bestH := a.heuristic(startGX, startGZ, goalGX, goalGZ)

	maxIterations := grid.Width() * grid.Depth()
	if a.maxNodes > 0 && a.maxNodes < maxIterations {
		maxIterations = a.maxNodes
	}
	iterations := 0

	for a.openHeap.Len() > 0 && iterations < maxIterations {
		iterations++

		current := heap.Pop(a.openHeap).(*astarNode)
		currentID := current.gz*w + current.gx
		if _, done := a.closedSet[currentID]; done {
			continue
		}

		// Goal reached
		if currentID == goalID {
			a.stats.Expanded += iterations
			return a.finish(goal, a.reconstructPath(startID, goalID))
		}

		a.closedSet[currentID] = struct{}{}
		if h := a.heuristic(current.gx, current.gz, goalGX, goalGZ); h < bestH {
			bestH, bestID = h, currentID
		}

		// Check 8-connected neighbors
		neighbors := [8][2]int{
			{current.gx - 1, current.gz},     // W
			{current.gx + 1, current.gz},     // E
			{current.gx, current.gz - 1},     // N
			{current.gx, current.gz + 1},     // S
			{current.gx - 1, current.gz - 1}, // NW
			{current.gx + 1, current.gz - 1}, // NE
			{current.gx - 1, current.gz + 1}, // SW
			{current.gx + 1, current.gz + 1}, // SE
		}

		for i, n := range neighbors {
			ngx, ngz := n[0], n[1]

			if !grid.CanStep(current.gx, current.gz, ngx, ngz) {
				continue
			}

			// For diagonal moves, both side cells must be passable to prevent cutting corners
			if i >= 4 {
				dx := ngx - current.gx
				dz := ngz - current.gz
				if !grid.CanStep(current.gx, current.gz, current.gx+dx, current.gz) ||
					!grid.CanStep(current.gx, current.gz, current.gx, current.gz+dz) {
					continue
				}
			}

			neighborID := ngz*w + ngx

			// Skip if already evaluated
			if _, ok := a.closedSet[neighborID]; ok {
				continue
			}

			// Calculate cost (sqrt(2) for diagonal, 1 for cardinal), climbing costs extra
			moveCost := 1.0
			if i >= 4 {
				moveCost = math.Sqrt2
			}
			moveCost += math.Abs(grid.Height(ngx, ngz)-grid.Height(current.gx, current.gz)) * 0.5

			tentativeG := a.gScore[currentID] + moveCost

			existingG, exists := a.gScore[neighborID]
			if exists && tentativeG >= existingG {
				continue
			}

			a.cameFrom[neighborID] = currentID
			a.gScore[neighborID] = tentativeG
			heap.Push(a.openHeap, &astarNode{gx: ngx, gz: ngz, f: tentativeG + a.heuristic(ngx, ngz, goalGX, goalGZ)})
		}
	}

	a.stats.Expanded += iterations
	if bestID == startID {
		a.stats.Failed++
		return nil
	}
	return a.finish(goal, a.reconstructPath(startID, bestID))
}

func (a *AStarPlanner) finish(goal mgl64.Vec3, waypoints []mgl64.Vec3) *PlannedPath {
	end := waypoints[len(waypoints)-1]
	reached := end.Sub(goal).Len() <= a.reachTolerance
	if reached {
		a.stats.Reached++
	} else {
		a.stats.Partial++
	}
	return &PlannedPath{Waypoints: waypoints, Goal: goal, Reached: reached}
}

// heuristic computes the Euclidean distance heuristic for A*.
func (a *AStarPlanner) heuristic(gx1, gz1, gx2, gz2 int) float64 {
	dx := float64(gx2 - gx1)
	dz := float64(gz2 - gz1)
	return math.Sqrt(dx*dx + dz*dz)
}

// reconstructPath builds the path from the cameFrom map, excluding the start cell.
func (a *AStarPlanner) reconstructPath(startID, endID int) []mgl64.Vec3 {
	w := a.grid.Width()

	var pathIDs []int
	current := endID
	for current != startID {
		pathIDs = append(pathIDs, current)
		var ok bool
		current, ok = a.cameFrom[current]
		if !ok {
			break
		}
	}
	pathIDs = append(pathIDs, startID)

	// Reverse and convert to world coordinates
	path := make([]mgl64.Vec3, len(pathIDs))
	for i := 0; i < len(pathIDs); i++ {
		id := pathIDs[len(pathIDs)-1-i]
		path[i] = a.grid.GridToWorld(id%w, id/w)
	}

	simplified := a.simplifyPath(path)
	return simplified[1:]
}

// simplifyPath removes waypoints that can be skipped by walking straight.
func (a *AStarPlanner) simplifyPath(path []mgl64.Vec3) []mgl64.Vec3 {
	if len(path) <= 2 {
		return path
	}

	simplified := make([]mgl64.Vec3, 0, len(path))
	simplified = append(simplified, path[0])
	anchor := path[0]

	for i := 1; i < len(path)-1; i++ {
		// Keep path[i] only if the last kept point cannot see the one after it
		if !a.hasLineOfSight(anchor, path[i+1]) {
			simplified = append(simplified, path[i])
			anchor = path[i]
		}
	}

	simplified = append(simplified, path[len(path)-1])
	return simplified
}

// hasLineOfSight checks that a straight walk between two points only crosses
// columns that can be stepped between.
func (a *AStarPlanner) hasLineOfSight(from, to mgl64.Vec3) bool {
	grid := a.grid
	dx := to.X() - from.X()
	dz := to.Z() - from.Z()
	dist := math.Sqrt(dx*dx + dz*dz)
	if dist < 0.01 {
		return true
	}

	steps := int(dist/0.25) + 1
	px, pz := grid.WorldToGrid(from.X(), from.Z())
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cx, cz := grid.WorldToGrid(from.X()+dx*t, from.Z()+dz*t)
		if cx == px && cz == pz {
			continue
		}
		if cx != px && cz != pz {
			// Crossing a corner: both orthogonal routes must be open
			if !grid.CanStep(px, pz, cx, pz) || !grid.CanStep(cx, pz, cx, cz) ||
				!grid.CanStep(px, pz, px, cz) || !grid.CanStep(px, cz, cx, cz) {
				return false
			}
		} else if !grid.CanStep(px, pz, cx, cz) {
			return false
		}
		px, pz = cx, cz
	}
	return true
}

// findNearestOpen finds the nearest unblocked cell to the given cell.
// Returns (-1, -1) if no open cell found within search radius.
func (a *AStarPlanner) findNearestOpen(gx, gz int) (int, int) {
	// Spiral search outward
	for radius := 1; radius < 4; radius++ {
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				// Only check cells at the current radius
				if abs(dx) != radius && abs(dz) != radius {
					continue
				}
				if !a.grid.IsBlocked(gx+dx, gz+dz) {
					return gx + dx, gz + dz
				}
			}
		}
	}
	return -1, -1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
