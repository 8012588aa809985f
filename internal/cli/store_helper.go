package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imyousuf/slotgraph/internal/config"
	"github.com/imyousuf/slotgraph/internal/engine"
	"github.com/imyousuf/slotgraph/internal/settings"
	"github.com/imyousuf/slotgraph/internal/telemetry"
)

// session is a loaded snapshot plus the configuration it was opened with.
type session struct {
	cfg   *config.Config
	path  string
	graph engine.Engine
	// existed is false when the snapshot file did not exist and the graph
	// started out empty.
	existed bool
}

// loadConfig loads and validates configuration and applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	applyLogLevel(cmd, cfg.Log.Level)
	return cfg, nil
}

// openSession resolves the snapshot path from config and flags and loads it.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	path := cfg.ResolveSnapshot(snapshotPath)
	g, existed, err := openGraph(cmd.Context(), path, cfg.EngineOptions())
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, path: path, graph: g, existed: existed}, nil
}

// save writes the session's graph back to its snapshot.
func (s *session) save(ctx context.Context) error {
	return saveGraph(ctx, s.path, s.graph)
}

// openGraph loads the snapshot at path, or returns an empty graph when the
// file does not exist yet.
func openGraph(ctx context.Context, path string, opts engine.Options) (g engine.Engine, existed bool, err error) {
	_, span := telemetry.Start(ctx, "snapshot.load",
		attribute.String("snapshot.path", path),
		attribute.Int("graph.id_width", opts.Width),
		attribute.String("graph.strategy", string(opts.Strategy)),
	)
	defer func() { telemetry.End(span, err) }()

	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		slog.Debug("snapshot does not exist, starting empty", "path", path)
		g, err = engine.New(opts)
		return g, false, err
	}

	s, found, err := settings.Read(path)
	if err != nil {
		return nil, false, err
	}
	if found {
		if err = s.Compatible(); err != nil {
			return nil, false, fmt.Errorf("snapshot %s: %w", path, err)
		}
		if s.IDWidth != opts.Width || s.Strategy != string(opts.Strategy) {
			slog.Info("loading snapshot with a different shape",
				"path", path,
				"saved_width", s.IDWidth, "saved_strategy", s.Strategy,
				"width", opts.Width, "strategy", opts.Strategy)
		}
	}

	start := time.Now()
	g, err = engine.Load(path, opts)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	span.SetAttributes(attribute.Int("graph.entries", g.Stats().Entries))
	slog.Debug("snapshot loaded", "path", path, "entries", g.Stats().Entries, "elapsed", time.Since(start))
	return g, true, nil
}

// saveGraph writes g and its settings sidecar to path.
func saveGraph(ctx context.Context, path string, g engine.Engine) (err error) {
	_, span := telemetry.Start(ctx, "snapshot.save",
		attribute.String("snapshot.path", path),
		attribute.Int("graph.entries", g.Stats().Entries),
	)
	defer func() { telemetry.End(span, err) }()

	start := time.Now()
	if err = g.Save(path); err != nil {
		return fmt.Errorf("save snapshot %s: %w", path, err)
	}
	if err = settings.Write(path, settings.New(g.Width(), string(g.Strategy()))); err != nil {
		return err
	}
	slog.Debug("snapshot saved", "path", path, "elapsed", time.Since(start))
	return nil
}
