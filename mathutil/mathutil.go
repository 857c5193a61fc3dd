// Package mathutil adds the 2D/3D geometry the engine core needs on top of
// mgl32's vector and matrix types: line/segment/polygon primitives,
// ear-clipping triangulation, point-in-polygon, line-segment/circle
// intersection, and the perspective/lookAt matrices the renderer uses.
package mathutil

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegeneratePolygon is returned by TriangulatePoly when the input has
// fewer than three vertices or no ear can be found.
var ErrDegeneratePolygon = errors.New("mathutil: degenerate polygon")

// Polygon is an ordered, implicitly-closed list of points in the XZ plane.
type Polygon []mgl32.Vec2

// Segment is a directed line segment from A to B.
type Segment struct {
	A, B mgl32.Vec2
}

// Line is an infinite line through a point with a direction.
type Line struct {
	Point     mgl32.Vec2
	Direction mgl32.Vec2
}

const epsilon = 1e-6

// LookAt returns a right-handed view matrix with up = (0,1,0), matching
// mgl32's own convention exactly, so no hand-rolled implementation is
// warranted here (see DESIGN.md).
func LookAt(eye, centre mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, centre, mgl32.Vec3{0, 1, 0})
}

// Perspective builds an asymmetric frustum from independent horizontal and
// vertical fields of view, producing a Y-down, Z-in-[0,1] projection
// matrix suitable for wgpu's clip space. mgl32.Perspective targets OpenGL's
// symmetric, Z-in-[-1,1] convention and cannot be reused directly; this is
// re-derived from the same frustum parameterisation as the original's
// asymmetric OpenGL perspective() but retargeted at wgpu's clip space.
func Perspective(hFov, vFov, near, far float32) mgl32.Mat4 {
	tanHalfH := float32(math.Tan(float64(hFov) / 2))
	tanHalfV := float32(math.Tan(float64(vFov) / 2))

	xScale := 1 / tanHalfH
	yScale := 1 / tanHalfV
	zScale := far / (far - near)

	var m mgl32.Mat4
	m[0] = xScale
	m[5] = -yScale // Y-down image space
	m[10] = zScale
	m[11] = 1
	m[14] = -near * zScale
	return m
}

// ProjectionOntoLine returns the foot of the perpendicular from p onto
// line, used by collision penetration resolution to find the nearest point
// on a wall segment's supporting line.
func ProjectionOntoLine(line Line, p mgl32.Vec2) mgl32.Vec2 {
	d := line.Direction
	lenSq := d.Dot(d)
	if lenSq < epsilon {
		return line.Point
	}
	t := p.Sub(line.Point).Dot(d) / lenSq
	return line.Point.Add(d.Mul(t))
}

// LineSegmentCircleIntersect solves |A + t(B-A) - c|^2 = r^2 and reports
// whether either root lies in [0, 1].
func LineSegmentCircleIntersect(seg Segment, c mgl32.Vec2, r float32) bool {
	d := seg.B.Sub(seg.A)
	f := seg.A.Sub(c)

	a := d.Dot(d)
	b := 2 * f.Dot(d)
	cc := f.Dot(f) - r*r

	disc := b*b - 4*a*cc
	if disc < 0 {
		return false
	}
	if a < epsilon {
		// Degenerate (zero-length) segment: treat as a point test.
		return f.Dot(f) <= r*r
	}

	sq := float32(math.Sqrt(float64(disc)))
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)

	return (t1 >= 0 && t1 <= 1) || (t2 >= 0 && t2 <= 1)
}

// PointIsInsidePoly implements the classic crossing-number test with
// y-monotone half-open edges: an edge (y1 > py) != (y2 > py) is counted,
// and the crossing x coordinate must lie strictly to the right of p.
func PointIsInsidePoly(p mgl32.Vec2, poly Polygon) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		if (a.Y() > p.Y()) != (b.Y() > p.Y()) {
			xIntersect := a.X() + (p.Y()-a.Y())/(b.Y()-a.Y())*(b.X()-a.X())
			if xIntersect > p.X() {
				inside = !inside
			}
		}
	}
	return inside
}

func anticlockwise(a, b, c mgl32.Vec2) bool {
	cross := (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
	return cross > 0
}

func pointInTriangle(p, a, b, c mgl32.Vec2) bool {
	d1 := (p.X()-b.X())*(a.Y()-b.Y()) - (a.X()-b.X())*(p.Y()-b.Y())
	d2 := (p.X()-c.X())*(b.Y()-c.Y()) - (b.X()-c.X())*(p.Y()-c.Y())
	d3 := (p.X()-a.X())*(c.Y()-a.Y()) - (c.X()-a.X())*(p.Y()-a.Y())

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// TriangulatePoly ear-clips poly in the XZ plane, returning (n-2) triangles
// as flat index triples. Fails with ErrDegeneratePolygon if poly has fewer
// than three vertices or no ear can be found among the remaining indices.
func TriangulatePoly(poly Polygon) ([]uint16, error) {
	n := len(poly)
	if n < 3 {
		return nil, ErrDegeneratePolygon
	}

	remaining := make([]uint16, n)
	for i := range remaining {
		remaining[i] = uint16(i)
	}

	var indices []uint16
	for len(remaining) > 3 {
		earFound := false
		m := len(remaining)
		// Candidate ears are tried starting from the second remaining vertex,
		// so a convex quad (0,1,2,3) yields (0,1,2) then (0,2,3).
		for s := 0; s < m; s++ {
			i := (s + 1) % m
			iPrev := remaining[(i-1+m)%m]
			iCur := remaining[i]
			iNext := remaining[(i+1)%m]

			a, b, c := poly[iPrev], poly[iCur], poly[iNext]
			if !anticlockwise(a, b, c) {
				continue
			}

			isEar := true
			for j := 0; j < m; j++ {
				idx := remaining[j]
				if idx == iPrev || idx == iCur || idx == iNext {
					continue
				}
				if pointInTriangle(poly[idx], a, b, c) {
					isEar = false
					break
				}
			}
			if !isEar {
				continue
			}

			indices = append(indices, iPrev, iCur, iNext)
			remaining = append(remaining[:i], remaining[i+1:]...)
			earFound = true
			break
		}
		if !earFound {
			return nil, ErrDegeneratePolygon
		}
	}
	indices = append(indices, remaining[0], remaining[1], remaining[2])
	return indices, nil
}
