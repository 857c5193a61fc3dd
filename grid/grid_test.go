package grid_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/grid"
	"github.com/kestrelcore/engine/mathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid() *grid.Grid[string] {
	return grid.New[string](mgl32.Vec2{0, 0}, mgl32.Vec2{10, 10}, 10, 10)
}

func cellSet(cells []grid.Cell) map[grid.Cell]struct{} {
	s := make(map[grid.Cell]struct{}, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

func TestCellsBetweenPoints_Diagonal(t *testing.T) {
	g := newTestGrid()
	got := cellSet(g.CellsBetweenPoints(mgl32.Vec2{0.2, 0.3}, mgl32.Vec2{1.2, 0.9}))
	want := cellSet([]grid.Cell{{0, 0}, {1, 0}})
	assert.Equal(t, want, got)
}

func TestCellsBetweenPoints_Vertical(t *testing.T) {
	g := newTestGrid()
	got := cellSet(g.CellsBetweenPoints(mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0.5, 7.5}))
	want := make(map[grid.Cell]struct{})
	for y := 0; y <= 7; y++ {
		want[grid.Cell{0, y}] = struct{}{}
	}
	assert.Equal(t, want, got)
}

func TestCellsBetweenPoints_OffGridStartsCrossingIntoRange(t *testing.T) {
	g := newTestGrid()
	got := cellSet(g.CellsBetweenPoints(mgl32.Vec2{-0.1, 8.1}, mgl32.Vec2{1.8, 10.3}))
	want := cellSet([]grid.Cell{{0, 8}, {0, 9}, {1, 9}})
	assert.Equal(t, want, got)
}

func TestCellsBetweenPoints_ContainsEndpoints(t *testing.T) {
	g := newTestGrid()
	a := mgl32.Vec2{1.5, 1.5}
	b := mgl32.Vec2{6.5, 4.5}
	cells := g.CellsBetweenPoints(a, b)
	set := cellSet(cells)
	if _, ok := set[grid.Cell{1, 1}]; !ok {
		t.Errorf("expected start cell (1,1) in %v", cells)
	}
	if _, ok := set[grid.Cell{6, 4}]; !ok {
		t.Errorf("expected end cell (6,4) in %v", cells)
	}
}

func TestAddByPerimeter_TouchesAnEdge(t *testing.T) {
	g := newTestGrid()
	square := mathutil.Polygon{{1, 1}, {5, 1}, {5, 5}, {1, 5}}
	g.AddByPerimeter(square, "wall")

	hits := g.QueryDisc(mgl32.Vec2{1, 1}, 0.01)
	assert.Contains(t, hits, "wall")

	miss, err := g.QueryPoint(mgl32.Vec2{3, 3})
	require.NoError(t, err)
	assert.NotContains(t, miss, "wall")
}

func TestAddByArea_SupersetOfPerimeter(t *testing.T) {
	g := newTestGrid()
	square := mathutil.Polygon{{1, 1}, {5, 1}, {5, 5}, {1, 5}}
	g.AddByArea(square, "floor")

	interior, err := g.QueryPoint(mgl32.Vec2{3, 3})
	require.NoError(t, err)
	assert.Contains(t, interior, "floor")

	edge, err := g.QueryPoint(mgl32.Vec2{1.05, 1.05})
	require.NoError(t, err)
	assert.Contains(t, edge, "floor")
}

func TestQueryPoint_OutOfBounds(t *testing.T) {
	g := newTestGrid()
	_, err := g.QueryPoint(mgl32.Vec2{-1, -1})
	require.ErrorIs(t, err, enginerr.ErrOutOfBounds)
}
