// Package spatial implements the culling index: a per-entity transform and
// bounding radius, grid-indexed by disc, queried by arbitrary convex
// polygon for frustum culling.
package spatial

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/entity"
	"github.com/kestrelcore/engine/grid"
	"github.com/kestrelcore/engine/mathutil"
)

// Component holds a relative transform, its (currently identical, pending
// a transform hierarchy) absolute transform, and a bounding radius in
// world units.
type Component struct {
	Relative mgl32.Mat4
	Absolute mgl32.Mat4
	Radius   float32
}

// translationXZ pulls the XZ translation out of a column-major 4x4.
func translationXZ(m mgl32.Mat4) mgl32.Vec2 {
	return mgl32.Vec2{m[12], m[14]}
}

// System stores SpatialComponents and indexes them in a gridSize×gridSize
// grid over a fixed world rectangle (100x100 under config.Default, the
// original's default).
type System struct {
	components *entity.System[Component]
	idx        *grid.Grid[entity.ID]
}

// New builds a spatial system over [worldMin, worldMax] with the given
// grid resolution (both dimensions), configured once at construction.
func New(worldMin, worldMax mgl32.Vec2, gridSize int) *System {
	return &System{
		components: entity.NewSystem[Component](),
		idx:        grid.New[entity.ID](worldMin, worldMax, gridSize, gridSize),
	}
}

// Add inserts id's component and indexes it into the grid by disc
// (translation.xz, radius).
func (s *System) Add(id entity.ID, c Component) {
	s.components.Add(id, c)
	centre := translationXZ(c.Absolute)
	s.idx.AddByDisc(centre, c.Radius, id)
}

// Get returns id's component, if present.
func (s *System) Get(id entity.ID) (Component, bool) {
	return s.components.Get(id)
}

// AbsoluteTransform returns id's absolute transform, satisfying
// collision.SpatialLookup so the collision system can place a volume's
// perimeter in world space without importing this package back.
func (s *System) AbsoluteTransform(id entity.ID) (mgl32.Mat4, bool) {
	c, ok := s.components.Get(id)
	if !ok {
		return mgl32.Mat4{}, false
	}
	return c.Absolute, true
}

// Remove deletes id's component. The grid entry is left in place — like
// the original, removal does not retract a disc insertion, since the grid
// has no per-item removal operation; stale grid hits are expected to be
// filtered by the caller re-checking Get.
func (s *System) Remove(id entity.ID) {
	s.components.Remove(id)
}

// GetIntersecting returns every entity whose bounding disc intersects poly.
func (s *System) GetIntersecting(poly mathutil.Polygon) map[entity.ID]struct{} {
	return s.idx.QueryPolygon(poly)
}

// Update is a no-op: transforms are set eagerly on Add, matching the
// original's SpatialSystemImpl::update().
func (s *System) Update() {}
