package layout

import (
	"container/heap"
	"math"

	"github.com/matzehuels/trazo/pkg/diagram"
)

const (
	gridSize     = 20.0
	gridPadding  = 20.0
	gridBuffer   = 100.0
	maxGridCells = 50000
	obstacleCost = 100
	bendPenalty  = 2
	freeCellCost = 1
)

type cell struct{ x, y int }

// findOrthogonalPath routes from start to end on a coarse grid with A*,
// treating padded obstacles as expensive rather than forbidden so a path
// always exists. Oversized grids fall back to a single elbow.
func findOrthogonalPath(start, end diagram.Point, obstacles []diagram.Rect) []diagram.Point {
	minX, maxX := math.Min(start.X, end.X), math.Max(start.X, end.X)
	minY, maxY := math.Min(start.Y, end.Y), math.Max(start.Y, end.Y)
	for _, r := range obstacles {
		p := r.Inflate(gridPadding)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X+p.W)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y+p.H)
	}
	minX -= gridBuffer
	minY -= gridBuffer
	maxX += gridBuffer
	maxY += gridBuffer

	w := int(math.Ceil((maxX - minX) / gridSize))
	h := int(math.Ceil((maxY - minY) / gridSize))
	if w*h > maxGridCells {
		return []diagram.Point{start, {X: start.X, Y: end.Y}, end}
	}

	cost := make([]int, w*h)
	for i := range cost {
		cost[i] = freeCellCost
	}
	toCell := func(p diagram.Point) cell {
		return cell{
			x: clampInt(int(math.Floor((p.X-minX)/gridSize)), 0, w-1),
			y: clampInt(int(math.Floor((p.Y-minY)/gridSize)), 0, h-1),
		}
	}
	toPoint := func(c cell) diagram.Point {
		return diagram.Point{X: float64(c.x)*gridSize + minX + gridSize/2, Y: float64(c.y)*gridSize + minY + gridSize/2}
	}
	for _, r := range obstacles {
		p := r.Inflate(gridPadding)
		lo, hi := toCell(diagram.Point{X: p.X, Y: p.Y}), toCell(diagram.Point{X: p.X + p.W, Y: p.Y + p.H})
		for y := lo.y; y <= hi.y; y++ {
			for x := lo.x; x <= hi.x; x++ {
				cost[y*w+x] = obstacleCost
			}
		}
	}
	src, dst := toCell(start), toCell(end)
	cost[src.y*w+src.x] = freeCellCost
	cost[dst.y*w+dst.x] = freeCellCost

	cells := astar(src, dst, w, h, cost)
	pts := make([]diagram.Point, 0, len(cells)+2)
	pts = append(pts, start)
	for _, c := range cells[1 : len(cells)-1] {
		pts = append(pts, toPoint(c))
	}
	pts = append(pts, end)
	return simplify(orthogonalize(pts))
}

type entry struct {
	c     cell
	f     int
	dir   int
	index int
}

type openSet []*entry

func (q openSet) Len() int { return len(q) }
func (q openSet) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	// Deterministic tie-break.
	if q[i].c.y != q[j].c.y {
		return q[i].c.y < q[j].c.y
	}
	return q[i].c.x < q[j].c.x
}
func (q openSet) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *openSet) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *openSet) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

var directions = [4]cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// astar returns the cells from src to dst inclusive. The grid is fully
// connected, so a path always exists.
func astar(src, dst cell, w, h int, cost []int) []cell {
	idx := func(c cell) int { return c.y*w + c.x }
	hScore := func(c cell) int { return absInt(c.x-dst.x) + absInt(c.y-dst.y) }

	g := make([]int, w*h)
	for i := range g {
		g[i] = math.MaxInt
	}
	prev := make([]int, w*h)
	for i := range prev {
		prev[i] = -1
	}
	g[idx(src)] = 0

	q := &openSet{{c: src, f: hScore(src), dir: -1}}
	for q.Len() > 0 {
		cur := heap.Pop(q).(*entry)
		if cur.c == dst {
			break
		}
		ci := idx(cur.c)
		if cur.f-hScore(cur.c) > g[ci] {
			continue // stale
		}
		for d, step := range directions {
			n := cell{cur.c.x + step.x, cur.c.y + step.y}
			if n.x < 0 || n.y < 0 || n.x >= w || n.y >= h {
				continue
			}
			ng := g[ci] + cost[idx(n)]
			if cur.dir >= 0 && cur.dir != d {
				ng += bendPenalty
			}
			if ng < g[idx(n)] {
				g[idx(n)] = ng
				prev[idx(n)] = ci
				heap.Push(q, &entry{c: n, f: ng + hScore(n), dir: d})
			}
		}
	}

	var path []cell
	for i := idx(dst); i != -1; i = prev[i] {
		path = append(path, cell{i % w, i / w})
		if i == idx(src) {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if len(path) < 2 {
		return []cell{src, dst}
	}
	return path
}

// orthogonalize inserts elbows so every segment is horizontal or vertical.
func orthogonalize(pts []diagram.Point) []diagram.Point {
	out := []diagram.Point{pts[0]}
	for _, p := range pts[1:] {
		last := out[len(out)-1]
		if last.X != p.X && last.Y != p.Y {
			out = append(out, diagram.Point{X: p.X, Y: last.Y})
		}
		out = append(out, p)
	}
	return out
}

// simplify drops duplicate and collinear interior points.
func simplify(pts []diagram.Point) []diagram.Point {
	out := []diagram.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		p := pts[i]
		if p == out[len(out)-1] {
			continue
		}
		if len(out) >= 2 {
			a, b := out[len(out)-2], out[len(out)-1]
			if (a.X == b.X && b.X == p.X) || (a.Y == b.Y && b.Y == p.Y) {
				out[len(out)-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
