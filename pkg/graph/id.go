package graph

import "fmt"

// NodeID is the set of unsigned integer types that can identify a node.
// A live node's id is always equal to its slot index in the arena, so the
// width of the id type bounds how many slots a graph can address.
type NodeID interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// MaxID returns the largest value representable by ID.
func MaxID[ID NodeID]() ID {
	return ^ID(0)
}

// ToIndex converts a node id into a slot index.
func ToIndex[ID NodeID](id ID) uint64 {
	return uint64(id)
}

// FromIndex converts a slot index into a node id. The caller guarantees the
// index fits; use CheckedFromUint64 for values read from outside the graph.
func FromIndex[ID NodeID](i int) ID {
	return ID(i)
}

// CheckedFromUint64 narrows v into ID, failing with ErrOverflow instead of
// truncating when v does not fit.
func CheckedFromUint64[ID NodeID](v uint64) (ID, error) {
	if v > uint64(MaxID[ID]()) {
		return 0, fmt.Errorf("%w: %d does not fit in a %d-bit node id", ErrOverflow, v, bitWidth[ID]())
	}
	return ID(v), nil
}

// bitWidth reports the number of bits in ID.
func bitWidth[ID NodeID]() int {
	n := 0
	for m := uint64(MaxID[ID]()); m != 0; m >>= 1 {
		n++
	}
	return n
}
