// Package grid implements the uniform W×H spatial grid used for both
// frustum-culling queries and collision indexing. Go has no way to make
// W and H compile-time constants the way the original's
// Grid<T, GRID_W, GRID_H> template does, so they are constructor
// arguments instead; everything else — the DDA rasterisation, the
// area/perimeter/disc insertion rules, the bounds clipping — follows the
// original exactly.
package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/mathutil"
)

// Cell is a grid coordinate (column, row).
type Cell struct {
	X, Y int
}

// Grid is a fixed W×H array of cell buckets over a world rectangle,
// holding items of type T.
type Grid[T comparable] struct {
	worldMin, worldMax mgl32.Vec2
	w, h               int
	cellW, cellH       float32
	cells              [][]map[T]struct{}
}

// New builds a grid of w columns by h rows spanning [worldMin, worldMax].
func New[T comparable](worldMin, worldMax mgl32.Vec2, w, h int) *Grid[T] {
	if w <= 0 || h <= 0 {
		panic("grid: width and height must be greater than 0")
	}
	g := &Grid[T]{
		worldMin: worldMin,
		worldMax: worldMax,
		w:        w,
		h:        h,
		cellW:    (worldMax.X() - worldMin.X()) / float32(w),
		cellH:    (worldMax.Y() - worldMin.Y()) / float32(h),
	}
	g.cells = make([][]map[T]struct{}, w)
	for i := range g.cells {
		g.cells[i] = make([]map[T]struct{}, h)
		for j := range g.cells[i] {
			g.cells[i][j] = make(map[T]struct{})
		}
	}
	return g
}

func (g *Grid[T]) withinBounds(p mgl32.Vec2) bool {
	return p.X() >= g.worldMin.X() && p.X() <= g.worldMax.X() &&
		p.Y() >= g.worldMin.Y() && p.Y() <= g.worldMax.Y()
}

func (g *Grid[T]) worldToGridCoords(p mgl32.Vec2) Cell {
	return Cell{
		X: int(math.Floor(float64((p.X() - g.worldMin.X()) / g.cellW))),
		Y: int(math.Floor(float64((p.Y() - g.worldMin.Y()) / g.cellH))),
	}
}

func (g *Grid[T]) cellInRange(c Cell) bool {
	return c.X >= 0 && c.X < g.w && c.Y >= 0 && c.Y < g.h
}

func (g *Grid[T]) cellCentre(c Cell) mgl32.Vec2 {
	return mgl32.Vec2{
		g.worldMin.X() + (float32(c.X)+0.5)*g.cellW,
		g.worldMin.Y() + (float32(c.Y)+0.5)*g.cellH,
	}
}

// gridCellsBetweenPoints rasterises the cells crossed by segment A->B using
// a 2D DDA: step along whichever axis reaches its next grid line first;
// ties (tx == ty) step the row (Y) first, matching the original.
func (g *Grid[T]) gridCellsBetweenPoints(a, b mgl32.Vec2) []Cell {
	start := g.worldToGridCoords(a)
	end := g.worldToGridCoords(b)

	cells := []Cell{start}
	if start == end {
		return cells
	}

	stepX := -1
	if b.X() > a.X() {
		stepX = 1
	}
	stepY := -1
	if b.Y() > a.Y() {
		stepY = 1
	}

	delta := b.Sub(a)

	nextVerticalCol := start.X
	if stepX > 0 {
		nextVerticalCol++
	}
	nextVertical := g.worldMin.X() + g.cellW*float32(nextVerticalCol)

	nextHorizontalRow := start.Y
	if stepY > 0 {
		nextHorizontalRow++
	}
	nextHorizontal := g.worldMin.Y() + g.cellH*float32(nextHorizontalRow)

	var tx, ty float32
	if absf(delta.X()) > 0 {
		tx = (nextVertical - a.X()) / delta.X()
	} else {
		tx = math.MaxFloat32
	}
	if absf(delta.Y()) > 0 {
		ty = (nextHorizontal - a.Y()) / delta.Y()
	} else {
		ty = math.MaxFloat32
	}

	dtX := g.cellW / absf(delta.X())
	dtY := g.cellH / absf(delta.Y())

	cell := start
	for cell != end {
		if tx < ty {
			cell.X += stepX
			tx += dtX
		} else {
			cell.Y += stepY
			ty += dtY
		}
		cells = append(cells, cell)
	}
	return cells
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// AddByPerimeter inserts item into every cell touched by any edge of poly.
func (g *Grid[T]) AddByPerimeter(poly mathutil.Polygon, item T) {
	if len(poly) == 0 {
		return
	}
	n := len(poly)
	for i := 0; i < n; i++ {
		p1 := poly[i]
		p2 := poly[(i+1)%n]
		for _, cell := range g.gridCellsBetweenPoints(p1, p2) {
			if g.cellInRange(cell) {
				g.cells[cell.X][cell.Y][item] = struct{}{}
			}
		}
	}
}

// AddByArea inserts item by perimeter, then additionally into every cell
// whose centre lies inside poly.
func (g *Grid[T]) AddByArea(poly mathutil.Polygon, item T) {
	if len(poly) == 0 {
		return
	}
	g.AddByPerimeter(poly, item)
	for i := 0; i < g.w; i++ {
		for j := 0; j < g.h; j++ {
			centre := g.cellCentre(Cell{i, j})
			if mathutil.PointIsInsidePoly(centre, poly) {
				g.cells[i][j][item] = struct{}{}
			}
		}
	}
}

// AddByDisc inserts item into every cell in the disc's bounding box,
// clipped to the grid.
func (g *Grid[T]) AddByDisc(centre mgl32.Vec2, radius float32, item T) {
	p0 := g.worldToGridCoords(mgl32.Vec2{centre.X() - radius, centre.Y() - radius})
	p1 := g.worldToGridCoords(mgl32.Vec2{centre.X() + radius, centre.Y() + radius})

	for i := maxInt(0, p0.X); i <= minInt(p1.X, g.w-1); i++ {
		for j := maxInt(0, p0.Y); j <= minInt(p1.Y, g.h-1); j++ {
			g.cells[i][j][item] = struct{}{}
		}
	}
}

// QueryPoint returns the contents of the cell containing p. It fails with
// enginerr.ErrOutOfBounds if p is outside the world rectangle — the only
// query variant that does.
func (g *Grid[T]) QueryPoint(p mgl32.Vec2) (map[T]struct{}, error) {
	if !g.withinBounds(p) {
		return nil, enginerr.ErrOutOfBounds
	}
	cell := g.worldToGridCoords(p)
	// A point on the max edge belongs to the last column/row.
	cell.X = minInt(cell.X, g.w-1)
	cell.Y = minInt(cell.Y, g.h-1)
	result := make(map[T]struct{}, len(g.cells[cell.X][cell.Y]))
	for k := range g.cells[cell.X][cell.Y] {
		result[k] = struct{}{}
	}
	return result, nil
}

// QueryDisc returns the union of cells in the disc's bounding box, clipped
// to the grid. Never fails.
func (g *Grid[T]) QueryDisc(centre mgl32.Vec2, radius float32) map[T]struct{} {
	items := make(map[T]struct{})

	p0 := g.worldToGridCoords(mgl32.Vec2{centre.X() - radius, centre.Y() - radius})
	p1 := g.worldToGridCoords(mgl32.Vec2{centre.X() + radius, centre.Y() + radius})

	for i := maxInt(0, p0.X); i <= minInt(p1.X, g.w-1); i++ {
		for j := maxInt(0, p0.Y); j <= minInt(p1.Y, g.h-1); j++ {
			for k := range g.cells[i][j] {
				items[k] = struct{}{}
			}
		}
	}
	return items
}

// QueryPolygon returns the union of cells intersected by poly's perimeter
// plus cells whose centre lies inside poly. Silently clips to the grid;
// an empty polygon returns an empty result.
func (g *Grid[T]) QueryPolygon(poly mathutil.Polygon) map[T]struct{} {
	items := make(map[T]struct{})
	if len(poly) == 0 {
		return items
	}

	minCoord := Cell{X: g.w - 1, Y: g.h - 1}
	maxCoord := Cell{X: 0, Y: 0}

	n := len(poly)
	for i := 0; i < n; i++ {
		p1 := poly[i]
		p2 := poly[(i+1)%n]
		for _, cell := range g.gridCellsBetweenPoints(p1, p2) {
			if g.cellInRange(cell) {
				for k := range g.cells[cell.X][cell.Y] {
					items[k] = struct{}{}
				}
			}
			if cell.X < minCoord.X {
				minCoord.X = maxInt(cell.X, 0)
			}
			if cell.X > maxCoord.X {
				maxCoord.X = minInt(cell.X, g.w-1)
			}
			if cell.Y < minCoord.Y {
				minCoord.Y = maxInt(cell.Y, 0)
			}
			if cell.Y > maxCoord.Y {
				maxCoord.Y = minInt(cell.Y, g.h-1)
			}
		}
	}

	for i := minCoord.X; i <= maxCoord.X; i++ {
		for j := minCoord.Y; j <= maxCoord.Y; j++ {
			centre := g.cellCentre(Cell{i, j})
			if mathutil.PointIsInsidePoly(centre, poly) {
				for k := range g.cells[i][j] {
					items[k] = struct{}{}
				}
			}
		}
	}
	return items
}

// CellsBetweenPoints exposes the DDA rasterisation for testing, mirroring
// the original's test_gridCellsBetweenPoints. Cells outside [0,W)×[0,H)
// are dropped, as they are for every insertion and query.
func (g *Grid[T]) CellsBetweenPoints(a, b mgl32.Vec2) []Cell {
	var cells []Cell
	for _, c := range g.gridCellsBetweenPoints(a, b) {
		if g.cellInRange(c) {
			cells = append(cells, c)
		}
	}
	return cells
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
