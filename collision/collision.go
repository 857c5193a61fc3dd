// Package collision implements extruded-polygon collision volumes:
// swept-circle movement resolution with step-up semantics, and
// altitude-above-floor queries.
package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/entity"
	"github.com/kestrelcore/engine/grid"
	"github.com/kestrelcore/engine/mathutil"
)

// Component is a 2D perimeter (ordered, implicitly closed) extruded to a
// fixed height, expressed relative to the owning entity's spatial
// transform.
type Component struct {
	Perimeter mathutil.Polygon
	Height    float32
}

// item is the world-space realisation of a Component once inserted: its
// perimeter transformed into world space and its floor height. Spec's
// design notes call for "an index into the item list, not a pointer" to
// avoid aliasing when the grid stores references — here that's simply the
// slice index, boxed as a small value type instead of a pointer.
type item struct {
	absPerimeter mathutil.Polygon
	absHeight    float32
}

const maxRecursionDepth = 10
const pushOffFactor = 1.01

var lowestFloat32 = float32(-math.MaxFloat32)

// SpatialLookup is the minimal view the collision system needs of the
// spatial system: the owning entity's absolute transform, required before
// a collision component can be added.
type SpatialLookup interface {
	AbsoluteTransform(id entity.ID) (mgl32.Mat4, bool)
}

// System holds extruded collision volumes and answers swept-circle motion
// and altitude queries against them.
type System struct {
	spatial SpatialLookup

	items    []item
	edgeGrid *grid.Grid[int]
	areaGrid *grid.Grid[int]
}

// New builds an uninitialised collision system; Initialise must be called
// before Add, TryMove or Altitude.
func New(spatial SpatialLookup) *System {
	return &System{spatial: spatial}
}

// Initialise (re-)allocates both grids at 50x50 over [worldMin, worldMax].
// Calling it again discards all previously added volumes, matching the
// original's overwrite-on-reinitialise behaviour.
func (s *System) Initialise(worldMin, worldMax mgl32.Vec2) {
	const gridSize = 50
	s.edgeGrid = grid.New[int](worldMin, worldMax, gridSize, gridSize)
	s.areaGrid = grid.New[int](worldMin, worldMax, gridSize, gridSize)
	s.items = nil
}

func (s *System) initialised() bool { return s.edgeGrid != nil && s.areaGrid != nil }

// Add transforms c's perimeter into world space via the owning entity's
// spatial transform and indexes it into both grids. The owning entity
// must already have a spatial component.
func (s *System) Add(owner entity.ID, c Component) error {
	if !s.initialised() {
		return enginerr.ErrNotInitialised
	}
	transform, ok := s.spatial.AbsoluteTransform(owner)
	if !ok {
		return enginerr.ErrNotInitialised
	}

	abs := make(mathutil.Polygon, len(c.Perimeter))
	var absHeight float32
	for i, p := range c.Perimeter {
		v := transform.Mul4x1(mgl32.Vec4{p.X(), c.Height, p.Y(), 1})
		abs[i] = mgl32.Vec2{v.X(), v.Z()}
		absHeight = v.Y()
	}

	idx := len(s.items)
	s.items = append(s.items, item{absPerimeter: abs, absHeight: absHeight})
	s.edgeGrid.AddByPerimeter(abs, idx)
	s.areaGrid.AddByArea(abs, idx)
	return nil
}

// Altitude returns pos.Y minus the highest floor whose perimeter contains
// pos's XZ projection. Fails with ErrOutsideAllVolumes if none do.
//
// Open question (spec.md §9): the result is the maximum of all containing
// floors, whatever order the candidates are visited in. On a seam shared
// by two volumes, which of them count as containing the point is decided
// by PointIsInsidePoly's half-open edge rule; no extra tie-break is added.
func (s *System) Altitude(pos mgl32.Vec3) (float32, error) {
	if !s.initialised() {
		return 0, enginerr.ErrNotInitialised
	}
	xz := mgl32.Vec2{pos.X(), pos.Z()}

	// A point outside the world rectangle is a grid misuse, not a recoverable
	// altitude failure; that distinction is what separates ErrOutOfBounds
	// from ErrOutsideAllVolumes in the error table.
	candidates, err := s.areaGrid.QueryPoint(xz)
	if err != nil {
		panic(err)
	}

	highest := lowestFloat32
	found := false

	for idx := range candidates {
		it := s.items[idx]
		if mathutil.PointIsInsidePoly(xz, it.absPerimeter) {
			if it.absHeight > highest {
				highest = it.absHeight
				found = true
			}
		}
	}

	if !found {
		return 0, enginerr.ErrOutsideAllVolumes
	}
	return pos.Y() - highest, nil
}

func permitsEntry(it item, pos mgl32.Vec3, stepHeight float32) bool {
	return it.absHeight-pos.Y() <= stepHeight
}

func (s *System) intersectingLineSegments(candidates map[int]struct{}, pos mgl32.Vec3, radius, stepHeight float32) []mathutil.Segment {
	xz := mgl32.Vec2{pos.X(), pos.Z()}
	var segments []mathutil.Segment

	for idx := range candidates {
		it := s.items[idx]
		if permitsEntry(it, pos, stepHeight) {
			continue
		}
		n := len(it.absPerimeter)
		for i := 0; i < n; i++ {
			p1 := it.absPerimeter[i]
			p2 := it.absPerimeter[(i+1)%n]
			seg := mathutil.Segment{A: p1, B: p2}
			if mathutil.LineSegmentCircleIntersect(seg, xz, radius) {
				segments = append(segments, seg)
			}
		}
	}
	return segments
}

// TryMove resolves a proposed movement delta against nearby collision
// volumes via swept-circle penetration resolution with step-up: volumes
// whose floor is no more than stepHeight above pos are walked onto rather
// than collided with.
func (s *System) TryMove(pos, delta mgl32.Vec3, radius, stepHeight float32, logger warner) (mgl32.Vec3, error) {
	if !s.initialised() {
		return mgl32.Vec3{}, enginerr.ErrNotInitialised
	}
	return s.tryMove(pos, delta, radius, stepHeight, 0, logger), nil
}

// warner is the minimal logging surface TryMove needs — just enough to
// report RecursionLimitExceeded without requiring collision to import
// enginelog directly.
type warner interface {
	Warnf(format string, args ...any)
}

func (s *System) tryMove(pos, delta mgl32.Vec3, radius, stepHeight float32, depth int, logger warner) mgl32.Vec3 {
	if depth > maxRecursionDepth {
		if logger != nil {
			logger.Warnf("collision: max recursion depth reached in tryMove")
		}
		return mgl32.Vec3{}
	}

	nextPos := pos.Add(delta)
	nextXZ := mgl32.Vec2{nextPos.X(), nextPos.Z()}

	candidates := s.edgeGrid.QueryDisc(nextXZ, radius)
	segments := s.intersectingLineSegments(candidates, nextPos, radius, stepHeight)

	smallestAdjustment := float32(math.MaxFloat32)
	finalDelta := delta

	for _, seg := range segments {
		line := mathutil.Line{Point: seg.A, Direction: seg.B.Sub(seg.A)}
		x := mathutil.ProjectionOntoLine(line, nextXZ)
		toLine := nextXZ.Sub(x)

		mag := toLine.Len()
		var normalised mgl32.Vec2
		if mag > 1e-9 {
			normalised = toLine.Mul(1 / mag)
		}
		adjustment := normalised.Mul((radius - mag) * pushOffFactor)
		adjustment3 := mgl32.Vec3{adjustment.X(), 0, adjustment.Y()}

		newDelta := s.tryMove(pos, delta.Add(adjustment3), radius, stepHeight, depth+1, logger)

		adjustmentSize := newDelta.Sub(delta).Len()
		if adjustmentSize < smallestAdjustment {
			finalDelta = newDelta
			smallestAdjustment = adjustmentSize
		}
	}

	return finalDelta
}
