package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/config"
	"github.com/imyousuf/slotgraph/internal/engine"
)

// configFilePath returns the file written by init and config edit.
func configFilePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigFile + "." + config.DefaultConfigType
}

func newInitCmd() *cobra.Command {
	var (
		force       bool
		interactive bool
		width       int
		strategy    string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .slotgraph.yaml configuration file",
		Long: `Write a slotgraph configuration file in the current directory.

The file selects the snapshot path, the node id width (8, 16, 32 or 64 bits)
and the fan-out strategy (hash or flat) used by every other command. Use
--interactive for a guided setup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFilePath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}

			cfg := config.Default()
			if interactive {
				ok, err := runConfigForm(cfg, "Create configuration?", "Create")
				if err != nil {
					return fmt.Errorf("interactive init: %w", err)
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			} else {
				if cmd.Flags().Changed("width") {
					cfg.Graph.IDWidth = width
				}
				if cmd.Flags().Changed("strategy") {
					cfg.Graph.Strategy = strategy
				}
				if snapshotPath != "" {
					cfg.Graph.Snapshot = snapshotPath
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.WriteConfig(cfg, path); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", path)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  1. Run 'slotgraph node create <label>' to add nodes")
			fmt.Fprintln(out, "  2. Run 'slotgraph edge set <from> <to> <weight>' to connect them")
			fmt.Fprintln(out, "  3. Run 'slotgraph stats' to inspect the snapshot")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run the interactive setup wizard")
	cmd.Flags().IntVar(&width, "width", 32, "node id width in bits")
	cmd.Flags().StringVar(&strategy, "strategy", string(engine.StrategyHash), "fan-out strategy (hash or flat)")
	registerShapeCompletion(cmd, "width", "strategy")
	return cmd
}
