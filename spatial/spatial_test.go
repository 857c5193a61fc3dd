package spatial

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/mathutil"
	"github.com/stretchr/testify/assert"
)

func translation(x, z float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, 0, z)
}

func TestAdd_GetAndAbsoluteTransform(t *testing.T) {
	sys := New(mgl32.Vec2{-50, -50}, mgl32.Vec2{50, 50}, 10)
	c := Component{Relative: mgl32.Ident4(), Absolute: translation(5, 5), Radius: 1}
	sys.Add(1, c)

	got, ok := sys.Get(1)
	assert.True(t, ok)
	assert.Equal(t, c, got)

	transform, ok := sys.AbsoluteTransform(1)
	assert.True(t, ok)
	assert.Equal(t, c.Absolute, transform)
}

func TestAbsoluteTransform_MissingEntity(t *testing.T) {
	sys := New(mgl32.Vec2{-50, -50}, mgl32.Vec2{50, 50}, 10)
	_, ok := sys.AbsoluteTransform(99)
	assert.False(t, ok)
}

func TestGetIntersecting_FindsEntityByBoundingDisc(t *testing.T) {
	sys := New(mgl32.Vec2{-50, -50}, mgl32.Vec2{50, 50}, 10)
	sys.Add(1, Component{Absolute: translation(0, 0), Radius: 2})
	sys.Add(2, Component{Absolute: translation(40, 40), Radius: 2})

	poly := mathutil.Polygon{{-5, -5}, {5, -5}, {5, 5}, {-5, 5}}
	hits := sys.GetIntersecting(poly)

	_, hasNear := hits[1]
	_, hasFar := hits[2]
	assert.True(t, hasNear)
	assert.False(t, hasFar)
}

func TestRemove_ClearsComponentButLeavesStaleGridEntry(t *testing.T) {
	sys := New(mgl32.Vec2{-50, -50}, mgl32.Vec2{50, 50}, 10)
	sys.Add(1, Component{Absolute: translation(0, 0), Radius: 2})
	sys.Remove(1)

	_, ok := sys.Get(1)
	assert.False(t, ok)

	poly := mathutil.Polygon{{-5, -5}, {5, -5}, {5, 5}, {-5, 5}}
	_, stale := sys.GetIntersecting(poly)[1]
	assert.True(t, stale, "removal does not retract the grid entry")
}
