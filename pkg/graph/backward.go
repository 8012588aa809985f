package graph

import "slices"

// BackwardIndex is the set of predecessors of one node. It records
// membership only. Create and Delete are idempotent.
type BackwardIndex[ID NodeID] interface {
	Create(source ID)
	Delete(source ID)
	Contains(source ID) bool
	// Data returns the links in their current storage order. Like
	// ForwardIndex, order is not stable across deletions.
	Data() []BackwardLink[ID]
	Len() int
}

// HashBackward is a dense slice of links with a position table.
type HashBackward[ID NodeID] struct {
	lookup map[ID]int
	data   []BackwardLink[ID]
}

var _ BackwardIndex[uint32] = (*HashBackward[uint32])(nil)

// NewHashBackward returns an empty hash-assisted backward index.
func NewHashBackward[ID NodeID]() *HashBackward[ID] {
	return &HashBackward[ID]{lookup: make(map[ID]int)}
}

func (h *HashBackward[ID]) Create(source ID) {
	if _, ok := h.lookup[source]; ok {
		return
	}
	h.data = append(h.data, BackwardLink[ID]{Source: source})
	h.lookup[source] = len(h.data) - 1
}

func (h *HashBackward[ID]) Delete(source ID) {
	i, ok := h.lookup[source]
	if !ok {
		return
	}
	last := len(h.data) - 1
	if i != last {
		h.data[i] = h.data[last]
		h.lookup[h.data[i].Source] = i
	}
	h.data = h.data[:last]
	delete(h.lookup, source)
}

func (h *HashBackward[ID]) Contains(source ID) bool {
	_, ok := h.lookup[source]
	return ok
}

func (h *HashBackward[ID]) Data() []BackwardLink[ID] { return h.data }

func (h *HashBackward[ID]) Len() int { return len(h.data) }

// FlatBackward is a plain slice of links scanned linearly.
type FlatBackward[ID NodeID] struct {
	data []BackwardLink[ID]
}

var _ BackwardIndex[uint32] = (*FlatBackward[uint32])(nil)

// NewFlatBackward returns an empty flat backward index.
func NewFlatBackward[ID NodeID]() *FlatBackward[ID] {
	return &FlatBackward[ID]{}
}

func (f *FlatBackward[ID]) position(source ID) int {
	return slices.IndexFunc(f.data, func(l BackwardLink[ID]) bool { return l.Source == source })
}

func (f *FlatBackward[ID]) Create(source ID) {
	if f.position(source) >= 0 {
		return
	}
	f.data = append(f.data, BackwardLink[ID]{Source: source})
}

func (f *FlatBackward[ID]) Delete(source ID) {
	i := f.position(source)
	if i < 0 {
		return
	}
	last := len(f.data) - 1
	f.data[i] = f.data[last]
	f.data = f.data[:last]
}

func (f *FlatBackward[ID]) Contains(source ID) bool { return f.position(source) >= 0 }

func (f *FlatBackward[ID]) Data() []BackwardLink[ID] { return f.data }

func (f *FlatBackward[ID]) Len() int { return len(f.data) }
