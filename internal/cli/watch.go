package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/engine"
	"github.com/imyousuf/slotgraph/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the snapshot whenever it changes and print its stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			w, err := watcher.NewWatcher(watcher.WatcherConfig{
				Files:    []string{s.path},
				Debounce: s.cfg.Watch.Debounce,
				OnError: func(err error) {
					slog.Warn("watcher error", "error", err)
				},
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Close()

			// Set up signal handling.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
					cancel()
				case <-ctx.Done():
				}
			}()

			events, err := w.Start(ctx)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s...\n", s.path)
			shared := engine.NewShared(s.graph)
			printWatchStats(out, shared)

			follow(ctx, events, shared, s.path, s.cfg.EngineOptions(), out)
			return nil
		},
	}
}

// follow reloads the snapshot into shared for every event until events is
// closed. A failed reload keeps the previous graph.
func follow(ctx context.Context, events <-chan watcher.Event, shared *engine.Shared, path string, opts engine.Options, out io.Writer) {
	for evt := range events {
		if evt.Op == watcher.Remove || evt.Op == watcher.Rename {
			if _, err := os.Stat(path); err != nil {
				slog.Warn("snapshot removed, keeping last loaded graph", "path", path)
				continue
			}
		}
		g, _, err := openGraph(ctx, path, opts)
		if err != nil {
			slog.Error("reload failed, keeping last loaded graph", "path", path, "error", err)
			continue
		}
		shared.Swap(g)
		slog.Debug("snapshot reloaded", "path", path, "op", evt.Op)
		fmt.Fprintf(out, "[%s] %s reloaded\n", evt.Time.Format("15:04:05"), path)
		printWatchStats(out, shared)
	}
}

func printWatchStats(out io.Writer, shared *engine.Shared) {
	_ = shared.Read(func(g engine.Engine) error {
		st := g.Stats()
		fmt.Fprintf(out, "  entries=%d slots=%d empty=%d\n", st.Entries, st.Slots, len(st.EmptySlots))
		return nil
	})
}
