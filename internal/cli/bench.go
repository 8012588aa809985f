package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/bench"
	"github.com/imyousuf/slotgraph/internal/engine"
)

func newBenchCmd() *cobra.Command {
	var (
		cfg        = bench.DefaultConfig()
		widths     []int
		strategies []string
		parallel   int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time create, connect, save, load and delete",
		Long: `Run the speed test once per requested graph shape. Each run creates
--nodes nodes, sets --per-source connections from each of --sources randomly
chosen nodes, saves and reloads the snapshot, then deletes every node.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var shapes []engine.Options
			for _, w := range widths {
				if !engine.ValidWidth(w) {
					return fmt.Errorf("unsupported width %d (want one of %v)", w, engine.Widths)
				}
				for _, name := range strategies {
					st, err := engine.ParseStrategy(name)
					if err != nil {
						return err
					}
					shapes = append(shapes, engine.Options{Width: w, Strategy: st})
				}
			}

			reports, err := bench.RunAll(cmd.Context(), shapes, cfg, parallel)
			if err != nil {
				return err
			}
			for _, r := range reports {
				printReport(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Nodes, "nodes", cfg.Nodes, "nodes to create")
	cmd.Flags().IntVar(&cfg.Sources, "sources", cfg.Sources, "nodes that get outgoing connections")
	cmd.Flags().IntVar(&cfg.PerSource, "per-source", cfg.PerSource, "connections per source node")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().IntSliceVar(&widths, "width", []int{16, 64}, "id widths to test")
	cmd.Flags().StringSliceVar(&strategies, "strategy", []string{"hash", "flat"}, "strategies to test")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "runs to execute concurrently")
	registerShapeCompletion(cmd, "width", "strategy")
	return cmd
}

func printReport(out io.Writer, r bench.Report) {
	title := fmt.Sprintf("%d-bit ids, %s fan-out", r.Shape.Width, r.Shape.Strategy)
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("=", len(title)))
	fmt.Fprintf(out, "  %-8s %8s %12s %12s %12s\n", "phase", "ops", "mean", "min", "max")
	for _, p := range r.Phases {
		fmt.Fprintf(out, "  %-8s %8d %12s %12s %12s\n", p.Name, p.Ops, p.Mean(), p.Min, p.Max)
	}
	fmt.Fprintf(out, "  snapshot: %d bytes, %d entries after load\n\n", r.SnapshotBytes, r.Entries)
}
