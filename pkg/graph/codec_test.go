package graph

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Label string
	Score int
}

func buildScenario(t *testing.T) *HashGraph[uint16, record, uint32] {
	t.Helper()
	g := NewHash[uint16, record, uint32]()
	for i := 0; i < 5; i++ {
		_, err := g.NodeCreate(record{Label: "n", Score: i})
		require.NoError(t, err)
	}
	require.NoError(t, g.ConnectionSet(0, 2, 545))
	require.NoError(t, g.ConnectionSet(0, 1, 3))
	require.NoError(t, g.ConnectionSet(0, 4, 93))
	require.NoError(t, g.ConnectionSet(3, 0, 7))
	require.NoError(t, g.NodeDelete(2))
	return g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := buildScenario(t)
	path := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, g.Save(path))

	loaded, err := LoadHash[uint16, record, uint32](path)
	require.NoError(t, err)
	require.NoError(t, loaded.Verify())

	assert.Equal(t, g.NumEntries(), loaded.NumEntries())
	assert.Equal(t, g.SlotCount(), loaded.SlotCount())
	assert.Equal(t, []int{2}, loaded.EmptySlots())

	for n := range g.Nodes() {
		got, err := loaded.NodeGet(n.ID())
		require.NoError(t, err)
		assert.Equal(t, n.Data, got.Data)
		assert.ElementsMatch(t, n.Forward(), got.Forward())
		assert.ElementsMatch(t, n.Backward(), got.Backward())
	}

	// The free list survives, so the next create reuses slot 2.
	id, err := loaded.NodeCreate(record{Label: "new"})
	require.NoError(t, err)
	assert.Equal(t, uint16(2), id)
}

// largeCount is above the CBOR decoder's default limit of 131072 elements
// per array.
const largeCount = 140_000

func TestLoadLargeFreeList(t *testing.T) {
	g := NewHash[uint32, uint8, uint8]()
	for range largeCount + 1 {
		_, err := g.NodeCreate(1)
		require.NoError(t, err)
	}
	// Keep the last slot occupied so no deletion truncates the arena.
	for id := uint32(0); id < largeCount; id++ {
		require.NoError(t, g.NodeDelete(id))
	}
	path := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, g.Save(path))

	loaded, err := LoadHash[uint32, uint8, uint8](path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.NumEntries())
	assert.Equal(t, largeCount+1, loaded.SlotCount())
	assert.Len(t, loaded.EmptySlots(), largeCount)

	id, err := loaded.NodeCreate(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(largeCount-1), id)
}

func TestLoadLargeFanOutAndFanIn(t *testing.T) {
	g := NewHash[uint32, uint8, uint8]()
	for range largeCount + 1 {
		_, err := g.NodeCreate(0)
		require.NoError(t, err)
	}
	for id := uint32(1); id <= largeCount; id++ {
		require.NoError(t, g.ConnectionSet(0, id, 1))
		require.NoError(t, g.ConnectionSet(id, 0, 2))
	}
	path := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, g.Save(path))

	loaded, err := LoadHash[uint32, uint8, uint8](path)
	require.NoError(t, err)
	hub, err := loaded.NodeGet(0)
	require.NoError(t, err)
	assert.Equal(t, largeCount, hub.OutDegree())
	assert.Equal(t, largeCount, hub.InDegree())

	c, err := hub.Connection(largeCount)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), c.Data)
}

func TestLoadIntoOtherStrategy(t *testing.T) {
	g := buildScenario(t)
	path := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, g.Save(path))

	flat, err := LoadFlat[uint16, record, uint32](path)
	require.NoError(t, err)
	require.NoError(t, flat.Verify())

	n0, err := flat.NodeGet(0)
	require.NoError(t, err)
	c, err := n0.Connection(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(93), c.Data)
	assert.True(t, n0.HasPredecessor(3))
}

func TestLoadIntoWiderID(t *testing.T) {
	g := buildScenario(t)
	path := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, g.Save(path))

	wide, err := LoadHash[uint32, record, uint32](path)
	require.NoError(t, err)
	assert.Equal(t, 4, wide.NumEntries())
	n, err := wide.NodeGet(4)
	require.NoError(t, err)
	assert.Equal(t, 4, n.Data.Score)
}

func TestLoadIntoNarrowIDOverflows(t *testing.T) {
	g := NewHash[uint32, struct{}, struct{}]()
	for i := 0; i < 300; i++ {
		_, err := g.NodeCreate(struct{}{})
		require.NoError(t, err)
	}
	path := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, g.Save(path))

	_, err := LoadHash[uint8, struct{}, struct{}](path)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestReadFromFailureLeavesGraphUnchanged(t *testing.T) {
	g := buildScenario(t)
	var buf bytes.Buffer
	_, err := g.WriteTo(&buf)
	require.NoError(t, err)

	truncated := buf.Bytes()[:buf.Len()-3]
	target := NewHash[uint16, record, uint32]()
	_, err = target.NodeCreate(record{Label: "keep"})
	require.NoError(t, err)

	_, err = target.ReadFrom(bytes.NewReader(truncated))
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, target.NumEntries())
	n, err := target.NodeGet(0)
	require.NoError(t, err)
	assert.Equal(t, "keep", n.Data.Label)
}

func TestWriteToReportsBytes(t *testing.T) {
	g := buildScenario(t)
	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	read, err := NewFlat[uint16, record, uint32]().ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, n, read)
}

func TestLoadRejectsOversizedFrame(t *testing.T) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], maxFrameSize+1)
	_, err := NewHash[uint32, string, int]().ReadFrom(bytes.NewReader(hdr[:]))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadRejectsBrokenFreeList(t *testing.T) {
	g := NewHash[uint32, string, int]()
	for i := 0; i < 3; i++ {
		_, err := g.NodeCreate("n")
		require.NoError(t, err)
	}
	// Point the free list at an occupied slot.
	g.arena.free = append(g.arena.free, 1)

	var buf bytes.Buffer
	_, err := g.WriteTo(&buf)
	require.NoError(t, err)

	_, err = NewHash[uint32, string, int]().ReadFrom(&buf)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadRejectsDanglingConnection(t *testing.T) {
	g := NewHash[uint32, string, int]()
	a, _ := g.NodeCreate("a")
	_, _ = g.NodeCreate("b")
	na, err := g.NodeGet(a)
	require.NoError(t, err)
	na.forward.Set(1, 5)

	var buf bytes.Buffer
	_, err = g.WriteTo(&buf)
	require.NoError(t, err)

	_, err = NewFlat[uint32, string, int]().ReadFrom(&buf)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadHash[uint32, string, int](filepath.Join(t.TempDir(), "absent.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "open", ce.Op)
}

func TestEmptyGraphRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, NewFlat[uint64, string, float64]().Save(path))

	g, err := LoadFlat[uint64, string, float64](path)
	require.NoError(t, err)
	assert.Zero(t, g.NumEntries())
	assert.Zero(t, g.SlotCount())
}

func BenchmarkBuildSaveLoad(b *testing.B) {
	const nodes = 10_000
	path := filepath.Join(b.TempDir(), "bench.bin")
	for b.Loop() {
		g := NewHash[uint32, uint32, uint32]()
		for i := uint32(0); i < nodes; i++ {
			if _, err := g.NodeCreate(i); err != nil {
				b.Fatal(err)
			}
		}
		for i := uint32(0); i < nodes; i++ {
			if err := g.ConnectionSet(i, (i*7+1)%nodes, i); err != nil {
				b.Fatal(err)
			}
		}
		if err := g.Save(path); err != nil {
			b.Fatal(err)
		}
		if _, err := LoadHash[uint32, uint32, uint32](path); err != nil {
			b.Fatal(err)
		}
	}
}
