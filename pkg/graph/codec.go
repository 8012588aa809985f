package graph

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot layout, all framing little-endian:
//
//	u32 len | free list   (CBOR array of slot indices)
//	u32 slot count
//	u32 len | slot        (repeated per slot, CBOR null or node array)
//
// Ids are written as plain CBOR unsigned integers, so a snapshot saved with
// one id width loads into any width wide enough for the stored values.

// maxFrameSize bounds a single length-prefixed frame on load so a damaged
// length prefix cannot trigger an enormous allocation.
const maxFrameSize = 1 << 30

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("graph: cbor encoding options: %v", err))
	}
	// Free lists and fan-out have no element cap; maxFrameSize bounds a decode.
	decMode, err = cbor.DecOptions{
		MaxArrayElements: math.MaxInt32,
		MaxMapPairs:      math.MaxInt32,
		MaxNestedLevels:  256,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("graph: cbor decoding options: %v", err))
	}
}

type wireConnection[C any] struct {
	_      struct{} `cbor:",toarray"`
	Target uint64
	Data   C
}

type wireNode[N, C any] struct {
	_        struct{} `cbor:",toarray"`
	ID       uint64
	Data     N
	Forward  []wireConnection[C]
	Backward []uint64
}

// Save writes a snapshot of the graph to path, creating or truncating it.
func (g *Graph[ID, N, C, F, B]) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &CodecError{Op: "create", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &CodecError{Op: "close", Err: cerr}
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := g.WriteTo(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return &CodecError{Op: "write", Err: err}
	}
	return nil
}

// WriteTo streams a snapshot of the graph to w, encoding one slot at a time.
func (g *Graph[ID, N, C, F, B]) WriteTo(w io.Writer) (int64, error) {
	a := &g.arena
	var total int64

	free := make([]uint64, len(a.free))
	for i, idx := range a.free {
		free[i] = uint64(idx)
	}
	enc, err := encMode.Marshal(free)
	if err != nil {
		return total, &CodecError{Op: "encode free list", Err: err}
	}
	n, err := writeFrame(w, enc)
	total += n
	if err != nil {
		return total, err
	}

	if len(a.slots) > math.MaxUint32 {
		return total, &CodecError{Op: "encode", Err: fmt.Errorf("%d slots exceed the snapshot limit", len(a.slots))}
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(a.slots)))
	m, err := w.Write(hdr[:])
	total += int64(m)
	if err != nil {
		return total, &CodecError{Op: "write", Err: err}
	}

	for idx, node := range a.slots {
		enc, err := encodeSlot(node)
		if err != nil {
			return total, &CodecError{Op: fmt.Sprintf("encode slot %d", idx), Err: err}
		}
		n, err := writeFrame(w, enc)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func encodeSlot[ID NodeID, N, C any, F ForwardIndex[ID, C], B BackwardIndex[ID]](node *Node[ID, N, C, F, B]) ([]byte, error) {
	if node == nil {
		return encMode.Marshal(nil)
	}
	wn := wireNode[N, C]{
		ID:       uint64(node.id),
		Data:     node.Data,
		Forward:  make([]wireConnection[C], 0, node.forward.Len()),
		Backward: make([]uint64, 0, node.backward.Len()),
	}
	for _, c := range node.forward.Data() {
		wn.Forward = append(wn.Forward, wireConnection[C]{Target: uint64(c.Target), Data: c.Data})
	}
	for _, l := range node.backward.Data() {
		wn.Backward = append(wn.Backward, uint64(l.Source))
	}
	return encMode.Marshal(&wn)
}

func writeFrame(w io.Writer, payload []byte) (int64, error) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), &CodecError{Op: "write", Err: err}
	}
	m, err := w.Write(payload)
	if err != nil {
		return int64(n + m), &CodecError{Op: "write", Err: err}
	}
	return int64(n + m), nil
}

// Load reads a snapshot from path into a new graph built from newForward and
// newBackward.
func Load[ID NodeID, N, C any, F ForwardIndex[ID, C], B BackwardIndex[ID]](path string, newForward func() F, newBackward func() B) (*Graph[ID, N, C, F, B], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CodecError{Op: "open", Err: err}
	}
	defer f.Close()

	g := New[ID, N, C](newForward, newBackward)
	if _, err := g.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadHash reads a snapshot into a graph using hash-assisted indices.
func LoadHash[ID NodeID, N, C any](path string) (*HashGraph[ID, N, C], error) {
	return Load[ID, N, C](path, NewHashForward[ID, C], NewHashBackward[ID])
}

// LoadFlat reads a snapshot into a graph using flat indices.
func LoadFlat[ID NodeID, N, C any](path string) (*FlatGraph[ID, N, C], error) {
	return Load[ID, N, C](path, NewFlatForward[ID, C], NewFlatBackward[ID])
}

// ReadFrom replaces the graph's contents with the snapshot read from r. On
// error the graph is left unchanged.
func (g *Graph[ID, N, C, F, B]) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	next := arena[ID, N, C, F, B]{newForward: g.arena.newForward, newBackward: g.arena.newBackward}

	buf, err := readFrame(cr)
	if err != nil {
		return cr.n, err
	}
	var free []uint64
	if err := decMode.Unmarshal(buf, &free); err != nil {
		return cr.n, &CodecError{Op: "decode free list", Err: err}
	}

	var hdr [4]byte
	if _, err := io.ReadFull(cr, hdr[:]); err != nil {
		return cr.n, &CodecError{Op: "read slot count", Err: err}
	}
	count := int(binary.LittleEndian.Uint32(hdr[:]))

	next.slots = make([]*Node[ID, N, C, F, B], 0, min(count, 1<<16))
	for idx := 0; idx < count; idx++ {
		buf, err := readFrame(cr)
		if err != nil {
			return cr.n, err
		}
		node, err := decodeSlot(&next, idx, buf)
		if err != nil {
			return cr.n, err
		}
		if node != nil {
			next.live++
		}
		next.slots = append(next.slots, node)
	}

	next.free = make([]int, 0, len(free))
	for _, v := range free {
		if _, err := CheckedFromUint64[ID](v); err != nil {
			return cr.n, fmt.Errorf("free list: %w", err)
		}
		next.free = append(next.free, int(v))
	}

	loaded := Graph[ID, N, C, F, B]{arena: next}
	if err := loaded.Verify(); err != nil {
		return cr.n, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	g.arena = next
	return cr.n, nil
}

func decodeSlot[ID NodeID, N, C any, F ForwardIndex[ID, C], B BackwardIndex[ID]](a *arena[ID, N, C, F, B], idx int, buf []byte) (*Node[ID, N, C, F, B], error) {
	var wn *wireNode[N, C]
	if err := decMode.Unmarshal(buf, &wn); err != nil {
		return nil, &CodecError{Op: fmt.Sprintf("decode slot %d", idx), Err: err}
	}
	if wn == nil {
		return nil, nil
	}
	if wn.ID != uint64(idx) {
		return nil, fmt.Errorf("%w: slot %d holds node id %d", ErrCorrupt, idx, wn.ID)
	}
	id, err := CheckedFromUint64[ID](wn.ID)
	if err != nil {
		return nil, fmt.Errorf("slot %d: %w", idx, err)
	}
	node := &Node[ID, N, C, F, B]{
		id:       id,
		Data:     wn.Data,
		forward:  a.newForward(),
		backward: a.newBackward(),
	}
	for _, c := range wn.Forward {
		target, err := CheckedFromUint64[ID](c.Target)
		if err != nil {
			return nil, fmt.Errorf("slot %d connection: %w", idx, err)
		}
		node.forward.Set(target, c.Data)
	}
	for _, s := range wn.Backward {
		source, err := CheckedFromUint64[ID](s)
		if err != nil {
			return nil, fmt.Errorf("slot %d backward link: %w", idx, err)
		}
		node.backward.Create(source)
	}
	return node, nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, &CodecError{Op: "read frame length", Err: err}
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds limit", ErrCorrupt, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &CodecError{Op: "read frame", Err: err}
	}
	return buf, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
