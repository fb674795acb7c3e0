package serialization

import "fmt"

// newInstance is the identity header announcing a value that has not been
// written before. Any header >= 0 is a back-reference to that slot.
const newInstance = -1

// WriteIdentities maps values to the slot in which they were first written.
type WriteIdentities[T comparable] struct {
	ids map[T]int
}

// NewWriteIdentities creates an empty write-side identity table.
func NewWriteIdentities[T comparable]() *WriteIdentities[T] {
	return &WriteIdentities[T]{ids: make(map[T]int)}
}

// ID returns the slot of v, if v has been registered.
func (t *WriteIdentities[T]) ID(v T) (int, bool) {
	id, ok := t.ids[v]
	return id, ok
}

// Put registers v at the next slot and returns it.
func (t *WriteIdentities[T]) Put(v T) int {
	id := len(t.ids)
	t.ids[v] = id
	return id
}

// Len returns the number of registered values.
func (t *WriteIdentities[T]) Len() int { return len(t.ids) }

// ReadIdentities maps slots back to decoded instances. Slots are reserved
// before a value is decoded and filled once it has been constructed; each
// slot is written exactly once.
type ReadIdentities[T any] struct {
	slots  []T
	filled []bool
}

// NewReadIdentities creates an empty read-side identity table.
func NewReadIdentities[T any]() *ReadIdentities[T] {
	return &ReadIdentities[T]{}
}

// Reserve allocates the next slot.
func (t *ReadIdentities[T]) Reserve() int {
	var zero T
	t.slots = append(t.slots, zero)
	t.filled = append(t.filled, false)
	return len(t.slots) - 1
}

// Fill stores v in a previously reserved slot.
func (t *ReadIdentities[T]) Fill(slot int, v T) {
	t.slots[slot] = v
	t.filled[slot] = true
}

// Instance returns the value stored in slot. It reports false for unknown
// slots and for slots whose value is still being decoded.
func (t *ReadIdentities[T]) Instance(slot int) (T, bool) {
	if slot < 0 || slot >= len(t.slots) || !t.filled[slot] {
		var zero T
		return zero, false
	}
	return t.slots[slot], true
}

// Len returns the number of reserved slots.
func (t *ReadIdentities[T]) Len() int { return len(t.slots) }

// EncodePreservingIdentity writes v through encode the first time it is
// seen by ids, and only a back-reference on every later call.
func EncodePreservingIdentity[T comparable](w *Writer, ids *WriteIdentities[T], v T, encode func() error) error {
	if id, ok := ids.ID(v); ok {
		return w.WriteSmallInt(id)
	}
	if err := w.WriteSmallInt(newInstance); err != nil {
		return err
	}
	ids.Put(v)
	return encode()
}

// DecodePreservingIdentity reads a value written by
// [EncodePreservingIdentity], calling decode only for new instances.
func DecodePreservingIdentity[T any](r *Reader, ids *ReadIdentities[T], decode func() (T, error)) (T, error) {
	var zero T
	start := r.Offset()
	header, err := r.ReadSmallInt()
	if err != nil {
		return zero, err
	}
	switch {
	case header == newInstance:
		slot := ids.Reserve()
		v, err := decode()
		if err != nil {
			return zero, err
		}
		ids.Fill(slot, v)
		return v, nil
	case header >= 0:
		if v, ok := ids.Instance(header); ok {
			return v, nil
		}
		return zero, &CorruptionError{Offset: start, Reason: fmt.Sprintf("unresolved back-reference to slot %d", header)}
	default:
		return zero, &CorruptionError{Offset: start, Reason: fmt.Sprintf("invalid identity header %d", header)}
	}
}
