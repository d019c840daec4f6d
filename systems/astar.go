package systems

import (
	"container/heap"
	"math"

	"github.com/pthm-cable/mcl/components"
	"github.com/pthm-cable/mcl/geom"
)

// Planner returns waypoints from start to goal, or nil when the goal is
// unreachable. Callers treat it as opaque.
type Planner interface {
	FindPath(start, goal geom.Point) []geom.Point
}

// AStarPlanner provides A* pathfinding over a navigation grid.
type AStarPlanner struct {
	grid *NavGrid

	// Reusable data structures (cleared between searches)
	openHeap  *nodeHeap
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]float64
	fScore    map[int]float64
}

// astarNode is a node in the A* search.
type astarNode struct {
	gx, gy int     // Grid coordinates
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

// NewAStarPlanner creates an A* planner over grid.
func NewAStarPlanner(grid *NavGrid) *AStarPlanner {
	return &AStarPlanner{
		grid:      grid,
		openHeap:  &nodeHeap{},
		closedSet: make(map[int]struct{}, 256),
		cameFrom:  make(map[int]int, 256),
		gScore:    make(map[int]float64, 256),
		fScore:    make(map[int]float64, 256),
	}
}

// Grid returns the planner's navigation grid.
func (a *AStarPlanner) Grid() *NavGrid { return a.grid }

// FindPath computes a path from start to goal using A*.
// Returns waypoints in map coordinates, or nil if no path found.
func (a *AStarPlanner) FindPath(start, goal geom.Point) []geom.Point {
	grid := a.grid

	startGX, startGY := grid.WorldToGrid(start.X, start.Y)
	goalGX, goalGY := grid.WorldToGrid(goal.X, goal.Y)

	if grid.IsBlocked(startGX, startGY) {
		startGX, startGY = a.findNearestOpen(startGX, startGY)
		if startGX < 0 {
			return nil
		}
	}
	if grid.IsBlocked(goalGX, goalGY) {
		goalGX, goalGY = a.findNearestOpen(goalGX, goalGY)
		if goalGX < 0 {
			return nil
		}
	}

	// Same cell - no path needed
	if startGX == goalGX && startGY == goalGY {
		x, y := grid.GridToWorld(goalGX, goalGY)
		return []geom.Point{{X: x, Y: y}}
	}

	*a.openHeap = (*a.openHeap)[:0]
	clear(a.closedSet)
	clear(a.cameFrom)
	clear(a.gScore)
	clear(a.fScore)

	startID := startGY*grid.width + startGX
	goalID := goalGY*grid.width + goalGX

	a.gScore[startID] = 0
	a.fScore[startID] = heuristic(startGX, startGY, goalGX, goalGY)
	heap.Push(a.openHeap, &astarNode{gx: startGX, gy: startGY, f: a.fScore[startID]})

	maxIterations := grid.width * grid.height
	for iterations := 0; a.openHeap.Len() > 0 && iterations < maxIterations; iterations++ {
		current := heap.Pop(a.openHeap).(*astarNode)
		currentID := current.gy*grid.width + current.gx

		if currentID == goalID {
			return a.reconstructPath(startID, goalID)
		}
		if _, done := a.closedSet[currentID]; done {
			continue
		}
		a.closedSet[currentID] = struct{}{}

		// 8-connected neighbors; cardinal first
		neighbors := [8][2]int{
			{current.gx - 1, current.gy},
			{current.gx + 1, current.gy},
			{current.gx, current.gy - 1},
			{current.gx, current.gy + 1},
			{current.gx - 1, current.gy - 1},
			{current.gx + 1, current.gy - 1},
			{current.gx - 1, current.gy + 1},
			{current.gx + 1, current.gy + 1},
		}

		for i, n := range neighbors {
			ngx, ngy := n[0], n[1]
			if grid.IsBlocked(ngx, ngy) {
				continue
			}

			moveCost := 1.0
			if i >= 4 {
				// No corner cutting
				dx := ngx - current.gx
				dy := ngy - current.gy
				if grid.IsBlocked(current.gx+dx, current.gy) || grid.IsBlocked(current.gx, current.gy+dy) {
					continue
				}
				moveCost = math.Sqrt2
			}

			neighborID := ngy*grid.width + ngx
			if _, ok := a.closedSet[neighborID]; ok {
				continue
			}

			tentativeG := a.gScore[currentID] + moveCost
			existingG, exists := a.gScore[neighborID]
			if exists && tentativeG >= existingG {
				continue
			}

			a.cameFrom[neighborID] = currentID
			a.gScore[neighborID] = tentativeG
			a.fScore[neighborID] = tentativeG + heuristic(ngx, ngy, goalGX, goalGY)
			// Re-push on improvement; stale entries are skipped via closedSet.
			heap.Push(a.openHeap, &astarNode{gx: ngx, gy: ngy, f: a.fScore[neighborID]})
		}
	}

	return nil
}

// heuristic computes the Euclidean distance heuristic for A*.
func heuristic(gx1, gy1, gx2, gy2 int) float64 {
	return math.Hypot(float64(gx2-gx1), float64(gy2-gy1))
}

// reconstructPath builds the path from cameFrom map.
func (a *AStarPlanner) reconstructPath(startID, goalID int) []geom.Point {
	var pathIDs []int
	current := goalID
	for current != startID {
		pathIDs = append(pathIDs, current)
		var ok bool
		current, ok = a.cameFrom[current]
		if !ok {
			break
		}
	}
	pathIDs = append(pathIDs, startID)

	path := make([]geom.Point, len(pathIDs))
	for i := range pathIDs {
		id := pathIDs[len(pathIDs)-1-i]
		x, y := a.grid.GridToWorld(id%a.grid.width, id/a.grid.width)
		path[i] = geom.Point{X: x, Y: y}
	}
	return a.simplifyPath(path)
}

// simplifyPath drops waypoints that have line of sight past them.
func (a *AStarPlanner) simplifyPath(path []geom.Point) []geom.Point {
	if len(path) <= 2 {
		return path
	}

	simplified := make([]geom.Point, 0, len(path))
	simplified = append(simplified, path[0])
	anchor := path[0]
	for i := 1; i < len(path)-1; i++ {
		if !a.hasLineOfSight(anchor, path[i+1]) {
			simplified = append(simplified, path[i])
			anchor = path[i]
		}
	}
	simplified = append(simplified, path[len(path)-1])
	return simplified
}

// hasLineOfSight checks if there's a clear line between two points on the nav grid.
func (a *AStarPlanner) hasLineOfSight(from, to geom.Point) bool {
	dist := from.Dist(to)
	if dist < 0.01 {
		return true
	}

	stepSize := a.grid.cellSize * 0.5
	steps := int(dist/stepSize) + 1
	dir := to.Sub(from).Scale(1 / dist)
	for i := 0; i <= steps; i++ {
		p := from.Add(dir.Scale(math.Min(float64(i)*stepSize, dist)))
		if a.grid.IsBlockedWorld(p.X, p.Y) {
			return false
		}
	}
	return true
}

// findNearestOpen finds the nearest unblocked cell to the given position.
// Returns (-1, -1) if no open cell found within search radius.
func (a *AStarPlanner) findNearestOpen(gx, gy int) (int, int) {
	for radius := 1; radius < 10; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if abs(dx) != radius && abs(dy) != radius {
					continue
				}
				if !a.grid.IsBlocked(gx+dx, gy+dy) {
					return gx + dx, gy + dy
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

// SetRoute replaces the route's waypoints with a freshly planned path.
// It reports false when no path exists.
func SetRoute(route *components.Route, p Planner, from, goal geom.Point) bool {
	path := p.FindPath(from, goal)
	route.Waypoints = route.Waypoints[:0]
	route.Next = 0
	route.GoalX, route.GoalY = goal.X, goal.Y
	route.Active = len(path) > 0
	for _, wp := range path {
		route.Waypoints = append(route.Waypoints, [2]float64{wp.X, wp.Y})
	}
	// The first waypoint is the start cell.
	if len(route.Waypoints) > 1 {
		route.Next = 1
	}
	return route.Active
}

// NextWaypoint returns the waypoint to head for from pos, advancing the
// route past waypoints within reach. ok is false once the route is done.
func NextWaypoint(route *components.Route, pos geom.Point, reach float64) (wp geom.Point, ok bool) {
	for !route.Done() {
		w := route.Waypoints[route.Next]
		wp = geom.Point{X: w[0], Y: w[1]}
		if pos.Dist(wp) >= reach {
			return wp, true
		}
		route.Next++
	}
	route.Active = false
	return pos, false
}
