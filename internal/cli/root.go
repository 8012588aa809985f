// Package cli implements the command-line interface for slotgraph.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imyousuf/slotgraph/internal/telemetry"
)

var (
	cfgFile      string
	snapshotPath string
	verbose      bool
	traceSpans   bool

	shutdownTracing func(context.Context) error
)

// rootCmd is the base command.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slotgraph",
		Short: "slotgraph - embedded directed graph store with snapshot files",
		Long: `slotgraph manages directed graphs held in an in-memory slot arena and
persisted as compact binary snapshots.

Commands:
  init       Write a .slotgraph.yaml config file
  node       Create, inspect, update and delete nodes
  edge       Set, remove and list connections
  stats      Show arena occupancy
  metrics    Show degree and weight metrics
  verify     Check forward/backward index consistency
  convert    Re-save a snapshot with another id width or strategy
  bench      Time create/connect/save/load/delete
  watch      Reload a snapshot whenever it changes on disk
  archive    Keep named copies of snapshots`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupRun,
	}

	// Persistent flags (available to all subcommands)
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .slotgraph.yaml)")
	cmd.PersistentFlags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file (overrides graph.snapshot)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "write OpenTelemetry spans to stderr")

	// Bind flags to viper
	if err := viper.BindPFlag("config_file", cmd.PersistentFlags().Lookup("config")); err != nil {
		panic(fmt.Sprintf("failed to bind config flag: %v", err))
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newNodeCmd())
	cmd.AddCommand(newEdgeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newMetricsCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newArchiveCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCompletionCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if shutdownTracing != nil {
		if serr := shutdownTracing(context.Background()); serr != nil && err == nil {
			err = fmt.Errorf("shutdown tracing: %w", serr)
		}
		shutdownTracing = nil
	}
	return err
}

// setupRun configures logging and tracing before any subcommand runs.
func setupRun(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	if traceSpans && shutdownTracing == nil {
		shutdown, err := telemetry.Init(cmd.Context(), "slotgraph", Version, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		shutdownTracing = shutdown
	}
	return nil
}

// applyLogLevel lowers or raises the default logger to the configured
// level unless --verbose already forced debug output.
func applyLogLevel(cmd *cobra.Command, name string) {
	if verbose || name == "" {
		return
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
}
