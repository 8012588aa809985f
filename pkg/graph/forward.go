package graph

import "slices"

// ForwardIndex maps target node ids to connection payloads for one node.
//
// Remove fills the vacated position with the last connection (swap-remove),
// so the order returned by Data is not stable across removals. Callers must
// not depend on iteration order.
type ForwardIndex[ID NodeID, C any] interface {
	// Set overwrites the payload for target in place, or appends a new
	// connection if target is not present.
	Set(target ID, data C)
	// Remove deletes the connection to target. Removing an absent target is
	// a no-op.
	Remove(target ID)
	// Get returns the connection to target or a *ConnectionError.
	Get(target ID) (Connection[ID, C], error)
	// Contains reports whether a connection to target exists.
	Contains(target ID) bool
	// Data returns the connections in their current storage order. The
	// slice is owned by the index and must not be modified.
	Data() []Connection[ID, C]
	// Len returns the number of connections.
	Len() int
}

// HashForward keeps connections in a dense slice with a side table from
// target id to slice position, giving O(1) lookup regardless of fan-out.
type HashForward[ID NodeID, C any] struct {
	lookup map[ID]int
	data   []Connection[ID, C]
}

var _ ForwardIndex[uint32, int] = (*HashForward[uint32, int])(nil)

// NewHashForward returns an empty hash-assisted forward index.
func NewHashForward[ID NodeID, C any]() *HashForward[ID, C] {
	return &HashForward[ID, C]{lookup: make(map[ID]int)}
}

func (h *HashForward[ID, C]) Set(target ID, data C) {
	if i, ok := h.lookup[target]; ok {
		h.data[i].Data = data
		return
	}
	h.data = append(h.data, Connection[ID, C]{Target: target, Data: data})
	h.lookup[target] = len(h.data) - 1
}

func (h *HashForward[ID, C]) Remove(target ID) {
	i, ok := h.lookup[target]
	if !ok {
		return
	}
	last := len(h.data) - 1
	if i != last {
		h.data[i] = h.data[last]
		h.lookup[h.data[i].Target] = i
	}
	h.data[last] = Connection[ID, C]{}
	h.data = h.data[:last]
	delete(h.lookup, target)
}

func (h *HashForward[ID, C]) Get(target ID) (Connection[ID, C], error) {
	i, ok := h.lookup[target]
	if !ok {
		return Connection[ID, C]{}, &ConnectionError{ID: uint64(target)}
	}
	return h.data[i], nil
}

func (h *HashForward[ID, C]) Contains(target ID) bool {
	_, ok := h.lookup[target]
	return ok
}

func (h *HashForward[ID, C]) Data() []Connection[ID, C] { return h.data }

func (h *HashForward[ID, C]) Len() int { return len(h.data) }

// FlatForward keeps connections in a plain slice scanned linearly. It has
// less overhead and better locality than HashForward when fan-out is small,
// at the cost of O(fan-out) lookups.
type FlatForward[ID NodeID, C any] struct {
	data []Connection[ID, C]
}

var _ ForwardIndex[uint32, int] = (*FlatForward[uint32, int])(nil)

// NewFlatForward returns an empty flat forward index.
func NewFlatForward[ID NodeID, C any]() *FlatForward[ID, C] {
	return &FlatForward[ID, C]{}
}

func (f *FlatForward[ID, C]) position(target ID) int {
	return slices.IndexFunc(f.data, func(c Connection[ID, C]) bool { return c.Target == target })
}

func (f *FlatForward[ID, C]) Set(target ID, data C) {
	if i := f.position(target); i >= 0 {
		f.data[i].Data = data
		return
	}
	f.data = append(f.data, Connection[ID, C]{Target: target, Data: data})
}

func (f *FlatForward[ID, C]) Remove(target ID) {
	i := f.position(target)
	if i < 0 {
		return
	}
	last := len(f.data) - 1
	f.data[i] = f.data[last]
	f.data[last] = Connection[ID, C]{}
	f.data = f.data[:last]
}

func (f *FlatForward[ID, C]) Get(target ID) (Connection[ID, C], error) {
	i := f.position(target)
	if i < 0 {
		return Connection[ID, C]{}, &ConnectionError{ID: uint64(target)}
	}
	return f.data[i], nil
}

func (f *FlatForward[ID, C]) Contains(target ID) bool { return f.position(target) >= 0 }

func (f *FlatForward[ID, C]) Data() []Connection[ID, C] { return f.data }

func (f *FlatForward[ID, C]) Len() int { return len(f.data) }
