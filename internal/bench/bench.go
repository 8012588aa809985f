// Package bench times the basic graph operations end to end: node
// creation, connection creation, snapshot save and load, and node deletion.
package bench

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imyousuf/slotgraph/internal/engine"
)

// Config sizes a run.
type Config struct {
	// Nodes is the number of nodes created.
	Nodes int
	// Sources is the number of nodes that receive outgoing connections.
	Sources int
	// PerSource is the number of connections set per source node.
	PerSource int
	// Seed makes node and target selection reproducible.
	Seed uint64
	// Dir holds the snapshot files. Empty means a fresh temp directory.
	Dir string
}

// DefaultConfig mirrors the classic 10k node speed test.
func DefaultConfig() Config {
	return Config{Nodes: 10_000, Sources: 10_000, PerSource: 10, Seed: 1}
}

func (c Config) validate() error {
	if c.Nodes <= 0 {
		return fmt.Errorf("nodes must be positive, got %d", c.Nodes)
	}
	if c.Sources < 0 || c.Sources > c.Nodes {
		return fmt.Errorf("sources must be between 0 and %d, got %d", c.Nodes, c.Sources)
	}
	if c.PerSource < 0 {
		return fmt.Errorf("per-source connections must not be negative, got %d", c.PerSource)
	}
	return nil
}

// Phase summarises the timings of one kind of operation.
type Phase struct {
	Name  string
	Ops   int
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Mean returns the mean time per operation.
func (p Phase) Mean() time.Duration {
	if p.Ops == 0 {
		return 0
	}
	return p.Total / time.Duration(p.Ops)
}

func (p *Phase) record(d time.Duration) {
	if p.Ops == 0 || d < p.Min {
		p.Min = d
	}
	if d > p.Max {
		p.Max = d
	}
	p.Ops++
	p.Total += d
}

// Report is the result of one run.
type Report struct {
	Shape         engine.Options
	Phases        []Phase
	SnapshotBytes int64
	Entries       int
}

// Run executes one speed test against a graph of the given shape.
func Run(ctx context.Context, shape engine.Options, cfg Config) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	dir := cfg.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "slotgraph-bench-")
		if err != nil {
			return Report{}, fmt.Errorf("create bench dir: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}
	path := filepath.Join(dir, fmt.Sprintf("bench-%d-%s.slot", shape.Width, shape.Strategy))

	g, err := engine.New(shape)
	if err != nil {
		return Report{}, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(shape.Width)))
	report := Report{Shape: shape}

	create := Phase{Name: "create"}
	for i := 0; i < cfg.Nodes; i++ {
		start := time.Now()
		_, err := g.CreateNode(engine.Record{Label: strconv.Itoa(i)})
		create.record(time.Since(start))
		if err != nil {
			return Report{}, fmt.Errorf("create node %d: %w", i, err)
		}
	}
	report.Phases = append(report.Phases, create)
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	connect := Phase{Name: "connect"}
	sources := rng.Perm(cfg.Nodes)[:cfg.Sources]
	for i, src := range sources {
		start := time.Now()
		for j := 0; j < cfg.PerSource; j++ {
			dst := rng.IntN(cfg.Nodes)
			if err := g.SetEdge(uint64(src), uint64(dst), float64(i)); err != nil {
				return Report{}, fmt.Errorf("connect %d -> %d: %w", src, dst, err)
			}
		}
		connect.record(time.Since(start))
	}
	report.Phases = append(report.Phases, connect)
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	save := Phase{Name: "save"}
	start := time.Now()
	if err := g.Save(path); err != nil {
		return Report{}, fmt.Errorf("save: %w", err)
	}
	save.record(time.Since(start))
	report.Phases = append(report.Phases, save)
	if info, err := os.Stat(path); err == nil {
		report.SnapshotBytes = info.Size()
	}

	load := Phase{Name: "load"}
	start = time.Now()
	g, err = engine.Load(path, shape)
	if err != nil {
		return Report{}, fmt.Errorf("load: %w", err)
	}
	load.record(time.Since(start))
	report.Phases = append(report.Phases, load)
	report.Entries = g.Stats().Entries
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	del := Phase{Name: "delete"}
	for i := 0; i < cfg.Nodes; i++ {
		start := time.Now()
		err := g.DeleteNode(uint64(i))
		del.record(time.Since(start))
		if err != nil {
			return Report{}, fmt.Errorf("delete node %d: %w", i, err)
		}
	}
	report.Phases = append(report.Phases, del)
	return report, nil
}

// RunAll runs one speed test per shape, at most parallel at a time. Each
// run owns its own graph, so runs share nothing but the output directory.
func RunAll(ctx context.Context, shapes []engine.Options, cfg Config, parallel int) ([]Report, error) {
	reports := make([]Report, len(shapes))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, shape := range shapes {
		g.Go(func() error {
			r, err := Run(ctx, shape, cfg)
			if err != nil {
				return fmt.Errorf("bench %d-bit %s: %w", shape.Width, shape.Strategy, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
