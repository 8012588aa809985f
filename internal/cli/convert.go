package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/engine"
)

func newConvertCmd() *cobra.Command {
	var (
		toWidth    int
		toStrategy string
	)
	cmd := &cobra.Command{
		Use:   "convert <output>",
		Short: "Re-save the snapshot with another id width or strategy",
		Long: `Load the snapshot into a graph of the requested shape and save it to
<output> together with a settings sidecar. Narrowing the id width fails if
any id in the snapshot does not fit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := cfg.EngineOptions()
			if cmd.Flags().Changed("to-width") {
				if !engine.ValidWidth(toWidth) {
					return fmt.Errorf("--to-width must be one of %v", engine.Widths)
				}
				opts.Width = toWidth
			}
			if cmd.Flags().Changed("to-strategy") {
				st, err := engine.ParseStrategy(toStrategy)
				if err != nil {
					return err
				}
				opts.Strategy = st
			}

			src := cfg.ResolveSnapshot(snapshotPath)
			g, _, err := openGraph(cmd.Context(), src, opts)
			if err != nil {
				return err
			}
			if err := saveGraph(cmd.Context(), args[0], g); err != nil {
				return err
			}
			slog.Info("snapshot converted", "from", src, "to", args[0], "width", opts.Width, "strategy", opts.Strategy)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d-bit ids, %s fan-out, %d entries)\n",
				args[0], opts.Width, opts.Strategy, g.Stats().Entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&toWidth, "to-width", 0, "target id width (8, 16, 32, 64)")
	cmd.Flags().StringVar(&toStrategy, "to-strategy", "", "target strategy (hash or flat)")
	registerShapeCompletion(cmd, "to-width", "to-strategy")
	return cmd
}
