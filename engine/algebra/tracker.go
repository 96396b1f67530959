// Package algebra provides the small set of vector, quaternion and matrix types used by the scene graph.
// Every value carries a dirty flag and a generation counter. Mutations set the flag and bump the
// generation; caches built on top of these values compare generations to decide whether to recompute.
package algebra

// tracker records change state for a numeric aggregate.
type tracker struct {
	dirty bool
	gen   uint64
}

// touch marks the value as changed.
func (t *tracker) touch() {
	t.dirty = true
	t.gen++
}

// Dirty reports whether the value was mutated since the last call to ClearDirty.
//
// Returns:
//   - bool: true if the value has pending changes
func (t *tracker) Dirty() bool {
	return t.dirty
}

// ClearDirty resets the dirty flag. The generation counter is left untouched.
func (t *tracker) ClearDirty() {
	t.dirty = false
}

// MarkDirty flags the value as changed without modifying its contents.
func (t *tracker) MarkDirty() {
	t.touch()
}

// Generation returns a counter that increases on every mutation.
// Two reads returning the same generation observed the same contents.
//
// Returns:
//   - uint64: the current generation
func (t *tracker) Generation() uint64 {
	return t.gen
}

// Array is a fixed-length float aggregate with change tracking.
// Vector3, Vector4, Quaternion and Matrix4 all satisfy it.
type Array interface {
	// Len returns the number of components.
	Len() int

	// At returns the component at index i.
	At(i int) float32

	// SetAt assigns the component at index i and marks the value dirty.
	SetAt(i int, v float32)

	// Dirty reports whether the value changed since the last ClearDirty.
	Dirty() bool

	// MarkDirty flags the value as changed.
	MarkDirty()

	// ClearDirty resets the dirty flag.
	ClearDirty()

	// Generation returns the mutation counter.
	Generation() uint64
}
