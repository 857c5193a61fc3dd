package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdAllocator_NextIdSkipsReserved(t *testing.T) {
	a := NewIdAllocator()
	reserved := a.IdFromString("player")
	// The string-derived id is a 64-bit hash the counter will not reach in
	// ten calls, so also reserve 3 directly: the loop below then crosses a
	// reserved id and must skip it.
	a.reserved[3] = struct{}{}
	seen := make(map[ID]struct{})
	for i := 0; i < 10; i++ {
		id := a.NextId()
		assert.NotEqual(t, reserved, id)
		assert.NotEqual(t, ID(3), id)
		seen[id] = struct{}{}
	}
	assert.NotContains(t, seen, reserved)
}

func TestIdAllocator_IdFromStringIsStable(t *testing.T) {
	a := NewIdAllocator()
	first := a.IdFromString("torch")
	second := a.IdFromString("torch")
	assert.Equal(t, first, second)
}

func TestIdAllocator_NextIdMonotonicAbsentCollisions(t *testing.T) {
	a := NewIdAllocator()
	prev := a.NextId()
	for i := 0; i < 100; i++ {
		next := a.NextId()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestSystem_AddGetRemove(t *testing.T) {
	sys := NewSystem[int]()
	sys.Add(1, 42)
	v, ok := sys.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	sys.Remove(1)
	_, ok = sys.Get(1)
	assert.False(t, ok)
}

func TestSystem_Update(t *testing.T) {
	sys := NewSystem[int]()
	sys.Add(1, 1)
	ok := sys.Update(1, func(v int) int { return v + 1 })
	assert.True(t, ok)
	v, _ := sys.Get(1)
	assert.Equal(t, 2, v)

	ok = sys.Update(2, func(v int) int { return v })
	assert.False(t, ok)
}

func TestSystem_Each(t *testing.T) {
	sys := NewSystem[string]()
	sys.Add(1, "a")
	sys.Add(2, "b")

	seen := map[ID]string{}
	sys.Each(func(id ID, v string) { seen[id] = v })
	assert.Equal(t, map[ID]string{1: "a", 2: "b"}, seen)
	assert.Equal(t, 2, sys.Len())
}
