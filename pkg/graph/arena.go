package graph

import (
	"fmt"
	"slices"
)

// arena owns node storage. A slot is either a *Node or nil; free slot
// indices are kept on a stack so the most recently freed slot is reused
// first.
type arena[ID NodeID, N, C any, F ForwardIndex[ID, C], B BackwardIndex[ID]] struct {
	slots       []*Node[ID, N, C, F, B]
	free        []int
	live        int
	newForward  func() F
	newBackward func() B
}

func (a *arena[ID, N, C, F, B]) create(data N) (ID, error) {
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = len(a.slots)
		if uint64(idx) > uint64(MaxID[ID]()) {
			return 0, fmt.Errorf("%w: arena is full at %d slots", ErrOverflow, idx)
		}
		a.slots = append(a.slots, nil)
	}
	id := FromIndex[ID](idx)
	a.slots[idx] = &Node[ID, N, C, F, B]{
		id:       id,
		Data:     data,
		forward:  a.newForward(),
		backward: a.newBackward(),
	}
	a.live++
	return id, nil
}

func (a *arena[ID, N, C, F, B]) get(id ID) (*Node[ID, N, C, F, B], error) {
	if uint64(id) >= uint64(len(a.slots)) {
		return nil, slotNotAllocated(id)
	}
	n := a.slots[int(id)]
	if n == nil {
		return nil, slotNotUsed(id)
	}
	return n, nil
}

// delete unlinks id from every neighbour and frees its slot. All neighbours
// are resolved before anything is mutated, so an inconsistent index leaves
// the graph untouched.
func (a *arena[ID, N, C, F, B]) delete(id ID) error {
	n, err := a.get(id)
	if err != nil {
		return err
	}

	preds := slices.Clone(n.backward.Data())
	succs := slices.Clone(n.forward.Data())

	predNodes := make([]*Node[ID, N, C, F, B], len(preds))
	for i, link := range preds {
		p, err := a.get(link.Source)
		if err != nil {
			return fmt.Errorf("%w: node %d has predecessor %d: %v", ErrInconsistent, id, link.Source, err)
		}
		predNodes[i] = p
	}
	succNodes := make([]*Node[ID, N, C, F, B], len(succs))
	for i, c := range succs {
		s, err := a.get(c.Target)
		if err != nil {
			return fmt.Errorf("%w: node %d connects to %d: %v", ErrInconsistent, id, c.Target, err)
		}
		succNodes[i] = s
	}

	for _, p := range predNodes {
		p.forward.Remove(id)
	}
	for _, s := range succNodes {
		s.backward.Delete(id)
	}

	idx := int(id)
	if idx == len(a.slots)-1 {
		a.slots[idx] = nil
		a.slots = a.slots[:idx]
	} else {
		a.slots[idx] = nil
		a.free = append(a.free, idx)
	}
	a.live--
	return nil
}
