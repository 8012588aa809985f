package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors returned by the graph match these with
// errors.Is.
var (
	ErrSlotNotAllocated = errors.New("slot not allocated")
	ErrSlotNotUsed      = errors.New("slot not used")
	ErrConnectionNotSet = errors.New("connection not set")
	ErrOverflow         = errors.New("node id overflow")
	ErrCorrupt          = errors.New("corrupt snapshot")
	ErrInconsistent     = errors.New("inconsistent graph")
)

// SlotError reports an access to a slot that does not hold a live node.
// Err is ErrSlotNotAllocated when the id is past the end of the arena and
// ErrSlotNotUsed when the slot sits on the free list.
type SlotError struct {
	ID  uint64
	Err error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d: %v", e.ID, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// ConnectionError reports a forward lookup for a target that has no entry.
type ConnectionError struct {
	ID uint64
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %d: %v", e.ID, ErrConnectionNotSet)
}

func (e *ConnectionError) Unwrap() error { return ErrConnectionNotSet }

// CodecError wraps an I/O or decode failure raised while saving or loading
// a snapshot.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("graph codec: %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func slotNotAllocated[ID NodeID](id ID) error {
	return &SlotError{ID: uint64(id), Err: ErrSlotNotAllocated}
}

func slotNotUsed[ID NodeID](id ID) error {
	return &SlotError{ID: uint64(id), Err: ErrSlotNotUsed}
}
