// Package engine selects a concrete graph instantiation at runtime and
// exposes it behind a uint64-id interface for the CLI.
//
// The graph package fixes id width and fan-out strategy at compile time. The
// CLI learns both from configuration, so this package holds the switch from
// (width, strategy) to one of the eight instantiations it supports.
package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/imyousuf/slotgraph/pkg/graph"
)

// Strategy names a fan-out implementation.
type Strategy string

const (
	StrategyHash Strategy = "hash"
	StrategyFlat Strategy = "flat"
)

// Widths lists the supported node-id widths in bits.
var Widths = []int{8, 16, 32, 64}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyHash, StrategyFlat:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, StrategyHash, StrategyFlat)
}

// ValidWidth reports whether w is a supported id width.
func ValidWidth(w int) bool { return slices.Contains(Widths, w) }

// Options selects the graph instantiation.
type Options struct {
	Width    int
	Strategy Strategy
}

// Record is the node payload stored by the CLI.
type Record struct {
	Label string            `cbor:"label"`
	Props map[string]string `cbor:"props,omitempty"`
}

// Edge is an outgoing connection with its weight.
type Edge struct {
	Target uint64
	Weight float64
}

// NodeView is a detached copy of a node and its adjacency.
type NodeView struct {
	ID     uint64
	Record Record
	Out    []Edge
	In     []uint64
}

// Stats summarises arena occupancy.
type Stats struct {
	Entries    int
	Slots      int
	EmptySlots []int
}

// Engine is a graph of Records with float64 edge weights.
type Engine interface {
	Width() int
	Strategy() Strategy

	CreateNode(rec Record) (uint64, error)
	Node(id uint64) (NodeView, error)
	UpdateNode(id uint64, fn func(*Record)) error
	DeleteNode(id uint64) error

	SetEdge(a, b uint64, weight float64) error
	RemoveEdge(a, b uint64) error

	Stats() Stats
	Verify() error
	Save(path string) error
	// Walk visits live nodes in slot order until fn returns false.
	Walk(fn func(NodeView) bool)
}

// New returns an empty engine.
func New(opts Options) (Engine, error) {
	return build(opts, "")
}

// Load reads the snapshot at path into an engine of the requested shape.
// A snapshot written by any width or strategy can be loaded as long as its
// ids fit the target width.
func Load(path string, opts Options) (Engine, error) {
	return build(opts, path)
}

func build(opts Options, path string) (Engine, error) {
	switch opts.Width {
	case 8:
		return buildWidth[uint8](opts, path)
	case 16:
		return buildWidth[uint16](opts, path)
	case 32:
		return buildWidth[uint32](opts, path)
	case 64:
		return buildWidth[uint64](opts, path)
	}
	return nil, fmt.Errorf("unsupported id width %d (want one of %v)", opts.Width, Widths)
}

func buildWidth[ID graph.NodeID](opts Options, path string) (Engine, error) {
	switch opts.Strategy {
	case StrategyHash:
		return open(opts, path, graph.NewHashForward[ID, float64], graph.NewHashBackward[ID])
	case StrategyFlat:
		return open(opts, path, graph.NewFlatForward[ID, float64], graph.NewFlatBackward[ID])
	}
	return nil, fmt.Errorf("unknown strategy %q", opts.Strategy)
}

func open[ID graph.NodeID, F graph.ForwardIndex[ID, float64], B graph.BackwardIndex[ID]](opts Options, path string, newForward func() F, newBackward func() B) (Engine, error) {
	if path == "" {
		return &typed[ID, F, B]{g: graph.New[ID, Record, float64](newForward, newBackward), opts: opts}, nil
	}
	g, err := graph.Load[ID, Record, float64](path, newForward, newBackward)
	if err != nil {
		return nil, err
	}
	return &typed[ID, F, B]{g: g, opts: opts}, nil
}

type typed[ID graph.NodeID, F graph.ForwardIndex[ID, float64], B graph.BackwardIndex[ID]] struct {
	g    *graph.Graph[ID, Record, float64, F, B]
	opts Options
}

func (t *typed[ID, F, B]) Width() int         { return t.opts.Width }
func (t *typed[ID, F, B]) Strategy() Strategy { return t.opts.Strategy }

// id narrows an external id. Anything wider than the graph can address is
// by definition past the end of the arena.
func (t *typed[ID, F, B]) id(v uint64) (ID, error) {
	id, err := graph.CheckedFromUint64[ID](v)
	if err != nil {
		return 0, &graph.SlotError{ID: v, Err: graph.ErrSlotNotAllocated}
	}
	return id, nil
}

func (t *typed[ID, F, B]) CreateNode(rec Record) (uint64, error) {
	id, err := t.g.NodeCreate(rec)
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (t *typed[ID, F, B]) Node(v uint64) (NodeView, error) {
	id, err := t.id(v)
	if err != nil {
		return NodeView{}, err
	}
	n, err := t.g.NodeGet(id)
	if err != nil {
		return NodeView{}, err
	}
	return view(n), nil
}

func (t *typed[ID, F, B]) UpdateNode(v uint64, fn func(*Record)) error {
	id, err := t.id(v)
	if err != nil {
		return err
	}
	n, err := t.g.NodeGet(id)
	if err != nil {
		return err
	}
	fn(&n.Data)
	return nil
}

func (t *typed[ID, F, B]) DeleteNode(v uint64) error {
	id, err := t.id(v)
	if err != nil {
		return err
	}
	return t.g.NodeDelete(id)
}

func (t *typed[ID, F, B]) SetEdge(a, b uint64, weight float64) error {
	ia, ib, err := t.pair(a, b)
	if err != nil {
		return err
	}
	return t.g.ConnectionSet(ia, ib, weight)
}

func (t *typed[ID, F, B]) RemoveEdge(a, b uint64) error {
	ia, ib, err := t.pair(a, b)
	if err != nil {
		return err
	}
	return t.g.ConnectionRemove(ia, ib)
}

func (t *typed[ID, F, B]) pair(a, b uint64) (ID, ID, error) {
	ib, err := t.id(b)
	if err != nil {
		return 0, 0, err
	}
	ia, err := t.id(a)
	if err != nil {
		return 0, 0, err
	}
	return ia, ib, nil
}

func (t *typed[ID, F, B]) Stats() Stats {
	return Stats{
		Entries:    t.g.NumEntries(),
		Slots:      t.g.SlotCount(),
		EmptySlots: t.g.EmptySlots(),
	}
}

func (t *typed[ID, F, B]) Verify() error { return t.g.Verify() }

func (t *typed[ID, F, B]) Save(path string) error { return t.g.Save(path) }

func (t *typed[ID, F, B]) Walk(fn func(NodeView) bool) {
	for n := range t.g.Nodes() {
		if !fn(view(n)) {
			return
		}
	}
}

func view[ID graph.NodeID, F graph.ForwardIndex[ID, float64], B graph.BackwardIndex[ID]](n *graph.Node[ID, Record, float64, F, B]) NodeView {
	v := NodeView{
		ID:     uint64(n.ID()),
		Record: Record{Label: n.Data.Label, Props: maps.Clone(n.Data.Props)},
		Out:    make([]Edge, 0, n.OutDegree()),
		In:     make([]uint64, 0, n.InDegree()),
	}
	for _, c := range n.Forward() {
		v.Out = append(v.Out, Edge{Target: uint64(c.Target), Weight: c.Data})
	}
	for _, l := range n.Backward() {
		v.In = append(v.In, uint64(l.Source))
	}
	return v
}

// IsNotFound reports whether err means the requested node does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, graph.ErrSlotNotAllocated) || errors.Is(err, graph.ErrSlotNotUsed)
}
