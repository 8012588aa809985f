package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imyousuf/slotgraph/internal/archive"
	"github.com/imyousuf/slotgraph/internal/engine"
	"github.com/imyousuf/slotgraph/internal/settings"
	"github.com/imyousuf/slotgraph/pkg/graph"
)

// run executes the CLI with args inside the current directory and returns
// what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "slotgraph %s", strings.Join(args, " "))
	return out
}

func TestNodeAndEdgeCommands(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.Equal(t, "0\n", mustRun(t, "node", "create", "--label", "a"))
	assert.Equal(t, "1\n", mustRun(t, "node", "create", "--label", "b", "--prop", "color=red"))
	mustRun(t, "edge", "set", "0", "1", "2.5")
	mustRun(t, "edge", "set", "1", "0", "1")

	out := mustRun(t, "node", "get", "0")
	assert.Contains(t, out, "Label: a")
	assert.Contains(t, out, "-> 1  weight=2.5")
	assert.Contains(t, out, "<- 1")

	out = mustRun(t, "node", "get", "1")
	assert.Contains(t, out, "color = red")

	mustRun(t, "node", "update", "1", "--label", "bee", "--unset", "color")
	out = mustRun(t, "node", "get", "1")
	assert.Contains(t, out, "Label: bee")
	assert.NotContains(t, out, "color")

	out = mustRun(t, "stats")
	assert.Contains(t, out, "Entries:     2")

	out = mustRun(t, "verify")
	assert.Equal(t, "OK: 2 entries in 2 slots\n", out)

	s, found, err := settings.Read("graph.slot")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, settings.FormatVersion, s.Version)
	assert.Equal(t, 32, s.IDWidth)
}

func TestDeleteCascadesAndReusesSlot(t *testing.T) {
	t.Chdir(t.TempDir())

	for range 3 {
		mustRun(t, "node", "create")
	}
	mustRun(t, "edge", "set", "0", "1", "1")
	mustRun(t, "edge", "set", "2", "1", "1")
	mustRun(t, "edge", "set", "1", "2", "1")

	mustRun(t, "node", "delete", "1")

	_, err := run(t, "node", "get", "1")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))

	out := mustRun(t, "edge", "list", "2")
	assert.Contains(t, out, "Outgoing (0)")
	assert.Contains(t, out, "Incoming (0)")

	out = mustRun(t, "stats")
	assert.Contains(t, out, "Empty slots: 1")
	assert.Contains(t, out, "Next reused: 1")

	assert.Equal(t, "1\n", mustRun(t, "node", "create"))
}

func TestEdgeErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	mustRun(t, "node", "create")

	_, err := run(t, "edge", "set", "0", "5", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrSlotNotAllocated)

	_, err = run(t, "edge", "set", "0", "0", "heavy")
	require.Error(t, err)

	// Removing a connection that does not exist is fine.
	mustRun(t, "edge", "remove", "0", "0")

	_, err = run(t, "node", "get", "x")
	require.Error(t, err)
}

func TestConvertNarrowOverflow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	g, err := engine.New(engine.Options{Width: 32, Strategy: engine.StrategyHash})
	require.NoError(t, err)
	for range 300 {
		_, err := g.CreateNode(engine.Record{})
		require.NoError(t, err)
	}
	require.NoError(t, saveGraph(context.Background(), "graph.slot", g))

	_, err = run(t, "convert", "small.slot", "--to-width", "8")
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrOverflow)
	_, statErr := os.Stat(filepath.Join(dir, "small.slot"))
	assert.True(t, os.IsNotExist(statErr))

	out := mustRun(t, "convert", "wide.slot", "--to-width", "64", "--to-strategy", "flat")
	assert.Contains(t, out, "300 entries")
	s, found, err := settings.Read("wide.slot")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 64, s.IDWidth)
	assert.Equal(t, "flat", s.Strategy)

	out = mustRun(t, "--snapshot", "wide.slot", "verify")
	assert.Contains(t, out, "300 entries")
}

func TestInitWritesConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	out := mustRun(t, "init", "--width", "16", "--strategy", "flat")
	assert.Contains(t, out, "Created .slotgraph.yaml")

	_, err := run(t, "init")
	require.Error(t, err)
	mustRun(t, "init", "--force", "--width", "16", "--strategy", "flat")

	mustRun(t, "node", "create")
	s, found, err := settings.Read("graph.slot")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 16, s.IDWidth)
	assert.Equal(t, "flat", s.Strategy)

	out = mustRun(t, "config")
	assert.Contains(t, out, "16 bits")

	_, err = run(t, "init", "--force", "--width", "12")
	require.Error(t, err)
}

func TestArchiveCommands(t *testing.T) {
	t.Chdir(t.TempDir())

	mustRun(t, "node", "create", "--label", "kept")
	out := mustRun(t, "archive", "put", "first")
	assert.Contains(t, out, "Archived graph.slot")

	out = mustRun(t, "archive", "list")
	assert.Contains(t, out, "first")

	mustRun(t, "node", "create", "--label", "later")
	assert.Contains(t, mustRun(t, "stats"), "Entries:     2")

	store, err := archive.Open(archive.Config{Path: ".slotgraph-archive"})
	require.NoError(t, err)
	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, entries, 1)
	id := entries[0].ID

	mustRun(t, "archive", "restore", id)
	assert.Contains(t, mustRun(t, "stats"), "Entries:     1")

	mustRun(t, "node", "create", "--label", "again")
	mustRun(t, "archive", "restore", "first")
	assert.Contains(t, mustRun(t, "stats"), "Entries:     1")

	_, err = run(t, "archive", "restore", "missing")
	assert.ErrorIs(t, err, archive.ErrNotFound)

	mustRun(t, "archive", "delete", id)
	out = mustRun(t, "archive", "list")
	assert.Contains(t, out, "No archived snapshots.")

	_, err = run(t, "archive", "restore", id)
	assert.ErrorIs(t, err, archive.ErrNotFound)
}

func TestBenchRejectsUnknownShape(t *testing.T) {
	_, err := run(t, "bench", "--width", "12")
	require.Error(t, err)

	_, err = run(t, "bench", "--strategy", "tree")
	require.Error(t, err)
}

func TestBenchSmallRun(t *testing.T) {
	out := mustRun(t, "bench", "--nodes", "50", "--sources", "20", "--per-source", "3",
		"--width", "16", "--strategy", "flat")
	assert.Contains(t, out, "16-bit ids, flat fan-out")
	assert.Contains(t, out, "connect")
	assert.Contains(t, out, "50 entries after load")
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	assert.Contains(t, out, "slotgraph version")
}

// completions runs the hidden completion command and returns the offered
// candidates without the trailing directive line.
func completions(t *testing.T, args ...string) []string {
	t.Helper()
	out := mustRun(t, append([]string{cobra.ShellCompRequestCmd}, args...)...)
	var got []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, ":") {
			continue
		}
		got = append(got, line)
	}
	return got
}

func TestCompleteNodeIDs(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, label := range []string{"alpha", "beta", ""} {
		mustRun(t, "node", "create", "--label", label)
	}
	mustRun(t, "node", "delete", "1")

	assert.Equal(t, []string{"0\talpha", "2"}, completions(t, "node", "get", ""))
	assert.Equal(t, []string{"2"}, completions(t, "edge", "set", "0", "2"))
	assert.Empty(t, completions(t, "edge", "set", "0", "2", ""))
}

func TestCompleteShapeFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.Equal(t, []string{"8", "16", "32", "64"}, completions(t, "convert", "--to-width", ""))
	assert.Equal(t, []string{"hash", "flat"}, completions(t, "bench", "--strategy", ""))
	assert.Equal(t, []string{"hash", "flat"}, completions(t, "init", "--strategy", ""))
}

func TestCompletionScript(t *testing.T) {
	out := mustRun(t, "completion", "bash")
	assert.Contains(t, out, "slotgraph")

	_, err := run(t, "completion", "tcsh")
	require.Error(t, err)
}
