// Package triplebuffer implements the writer/reader synchronisation
// primitive used to hand a RenderState from the simulation thread to the
// renderer thread without either side ever blocking on the other for more
// than a mutex swap.
package triplebuffer

import "sync"

// Buffer holds three slots of T: a write slot owned by the writer, a read
// slot owned by the reader, and a free slot that ping-pongs between them.
// The zero value is not usable; use New.
type Buffer[T any] struct {
	mu         sync.Mutex
	items      [3]T
	timestamps [3]uint64
	writeIndex int
	readIndex  int
	freeIndex  int
	frameCount uint64
}

// New returns a triple buffer with all three slots initialised to a copy
// of initial.
func New[T any](initial T) *Buffer[T] {
	return &Buffer[T]{
		items:      [3]T{initial, initial, initial},
		writeIndex: 0,
		readIndex:  1,
		freeIndex:  2,
	}
}

// GetWritable returns a pointer to the slot the writer thread may mutate.
// Must only be called from the writer thread, between WriteComplete calls.
func (b *Buffer[T]) GetWritable() *T {
	return &b.items[b.writeIndex]
}

// WriteComplete stamps the current write slot with the next frame number
// and swaps it with the free slot, publishing it for the reader to pick
// up. Returns the new write slot.
func (b *Buffer[T]) WriteComplete() *T {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameCount++
	b.timestamps[b.writeIndex] = b.frameCount
	b.writeIndex, b.freeIndex = b.freeIndex, b.writeIndex
	return &b.items[b.writeIndex]
}

// GetReadable returns a pointer to the slot the reader thread may read.
// Must only be called from the reader thread, between ReadComplete calls.
func (b *Buffer[T]) GetReadable() *T {
	return &b.items[b.readIndex]
}

// ReadComplete swaps in the free slot as the new read slot if it carries a
// newer timestamp than the current read slot — a published write the
// reader hasn't yet seen. If the writer has never completed a write, the
// free slot's timestamp is still zero and this is a no-op, so a read
// before any write observes the initial state. Returns the (possibly
// unchanged) read slot.
func (b *Buffer[T]) ReadComplete() *T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timestamps[b.freeIndex] > b.timestamps[b.readIndex] {
		b.readIndex, b.freeIndex = b.freeIndex, b.readIndex
	}
	return &b.items[b.readIndex]
}
