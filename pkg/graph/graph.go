// Package graph implements an embedded, in-memory directed graph store.
//
// Nodes live in a slot arena: a node's id is its slot index, deleted slots
// go onto a free-list stack and are reused last-freed first. Every node
// carries a forward index (target id to connection payload) and a backward
// index (set of predecessor ids). The Graph mutates both sides of an edge
// together so that, after every public call, A has a forward connection to
// B exactly when B's backward index contains A.
//
// The fan-out strategy is chosen at the type level: NewHash builds a graph
// whose indices use a position table for O(1) lookup, NewFlat one whose
// indices are plain slices scanned linearly.
//
// A Graph is not safe for concurrent use. Hosts that share one across
// goroutines must serialise access themselves.
package graph

import (
	"fmt"
	"iter"
	"slices"
)

// Graph is the public facade over the node arena.
type Graph[ID NodeID, N, C any, F ForwardIndex[ID, C], B BackwardIndex[ID]] struct {
	arena arena[ID, N, C, F, B]
}

// HashGraph is a Graph using the hash-assisted fan-out strategy.
type HashGraph[ID NodeID, N, C any] = Graph[ID, N, C, *HashForward[ID, C], *HashBackward[ID]]

// FlatGraph is a Graph using the flat fan-out strategy.
type FlatGraph[ID NodeID, N, C any] = Graph[ID, N, C, *FlatForward[ID, C], *FlatBackward[ID]]

// New returns an empty graph whose nodes get their indices from newForward
// and newBackward.
func New[ID NodeID, N, C any, F ForwardIndex[ID, C], B BackwardIndex[ID]](newForward func() F, newBackward func() B) *Graph[ID, N, C, F, B] {
	return &Graph[ID, N, C, F, B]{
		arena: arena[ID, N, C, F, B]{newForward: newForward, newBackward: newBackward},
	}
}

// NewHash returns an empty graph using hash-assisted indices.
func NewHash[ID NodeID, N, C any]() *HashGraph[ID, N, C] {
	return New[ID, N, C](NewHashForward[ID, C], NewHashBackward[ID])
}

// NewFlat returns an empty graph using flat indices.
func NewFlat[ID NodeID, N, C any]() *FlatGraph[ID, N, C] {
	return New[ID, N, C](NewFlatForward[ID, C], NewFlatBackward[ID])
}

// NodeCreate stores data in a new node and returns its id. A freed slot is
// reused when one is available. It fails with ErrOverflow only when every
// id representable by ID is already allocated.
func (g *Graph[ID, N, C, F, B]) NodeCreate(data N) (ID, error) {
	return g.arena.create(data)
}

// NodeGet returns the live node with the given id. The returned pointer is
// valid until the node is deleted or the graph is reloaded.
func (g *Graph[ID, N, C, F, B]) NodeGet(id ID) (*Node[ID, N, C, F, B], error) {
	return g.arena.get(id)
}

// NodeDelete removes a node together with every connection into or out of
// it.
func (g *Graph[ID, N, C, F, B]) NodeDelete(id ID) error {
	return g.arena.delete(id)
}

// ConnectionSet creates or updates the connection a -> b. Both endpoints are
// resolved before either index is touched.
func (g *Graph[ID, N, C, F, B]) ConnectionSet(a, b ID, data C) error {
	src, dst, err := g.endpoints(a, b)
	if err != nil {
		return err
	}
	src.forward.Set(b, data)
	dst.backward.Create(a)
	return nil
}

// ConnectionRemove deletes the connection a -> b if it exists. Both
// endpoints must be live nodes.
func (g *Graph[ID, N, C, F, B]) ConnectionRemove(a, b ID) error {
	src, dst, err := g.endpoints(a, b)
	if err != nil {
		return err
	}
	src.forward.Remove(b)
	dst.backward.Delete(a)
	return nil
}

func (g *Graph[ID, N, C, F, B]) endpoints(a, b ID) (*Node[ID, N, C, F, B], *Node[ID, N, C, F, B], error) {
	dst, err := g.arena.get(b)
	if err != nil {
		return nil, nil, err
	}
	src, err := g.arena.get(a)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// NumEntries returns the number of live nodes.
func (g *Graph[ID, N, C, F, B]) NumEntries() int { return g.arena.live }

// SlotCount returns the length of the slot vector, live and free.
func (g *Graph[ID, N, C, F, B]) SlotCount() int { return len(g.arena.slots) }

// EmptySlots returns a copy of the free-list stack, bottom first.
func (g *Graph[ID, N, C, F, B]) EmptySlots() []int { return slices.Clone(g.arena.free) }

// Nodes iterates over live nodes in slot order.
func (g *Graph[ID, N, C, F, B]) Nodes() iter.Seq[*Node[ID, N, C, F, B]] {
	return func(yield func(*Node[ID, N, C, F, B]) bool) {
		for _, n := range g.arena.slots {
			if n == nil {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Verify checks the arena bookkeeping and the forward/backward
// cross-reference property. It returns an error wrapping ErrInconsistent
// describing the first violation found.
func (g *Graph[ID, N, C, F, B]) Verify() error {
	a := &g.arena
	seen := make(map[int]struct{}, len(a.free))
	for _, idx := range a.free {
		if idx < 0 || idx >= len(a.slots) {
			return fmt.Errorf("%w: free slot %d out of range", ErrInconsistent, idx)
		}
		if a.slots[idx] != nil {
			return fmt.Errorf("%w: free slot %d is occupied", ErrInconsistent, idx)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: free slot %d listed twice", ErrInconsistent, idx)
		}
		seen[idx] = struct{}{}
	}

	live := 0
	for idx, n := range a.slots {
		if n == nil {
			if _, ok := seen[idx]; !ok {
				return fmt.Errorf("%w: empty slot %d missing from free list", ErrInconsistent, idx)
			}
			continue
		}
		live++
		if int(n.id) != idx {
			return fmt.Errorf("%w: node in slot %d has id %d", ErrInconsistent, idx, n.id)
		}
		for _, c := range n.forward.Data() {
			t, err := a.get(c.Target)
			if err != nil {
				return fmt.Errorf("%w: node %d connects to %d: %v", ErrInconsistent, n.id, c.Target, err)
			}
			if !t.backward.Contains(n.id) {
				return fmt.Errorf("%w: node %d connects to %d without a backward link", ErrInconsistent, n.id, c.Target)
			}
		}
		for _, l := range n.backward.Data() {
			s, err := a.get(l.Source)
			if err != nil {
				return fmt.Errorf("%w: node %d has predecessor %d: %v", ErrInconsistent, n.id, l.Source, err)
			}
			if !s.forward.Contains(n.id) {
				return fmt.Errorf("%w: node %d lists predecessor %d without a connection", ErrInconsistent, n.id, l.Source)
			}
		}
	}
	if live != a.live {
		return fmt.Errorf("%w: live count %d, occupied slots %d", ErrInconsistent, a.live, live)
	}
	return nil
}
