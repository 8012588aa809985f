package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/archive"
	"github.com/imyousuf/slotgraph/internal/config"
	"github.com/imyousuf/slotgraph/internal/engine"
	"github.com/imyousuf/slotgraph/internal/settings"
)

var idStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Keep named copies of snapshots",
		Long: `Store, list, restore and delete named snapshot copies in a BadgerDB
catalog (archive.path). Every copy is checked against its xxhash digest
before it is restored.`,
	}
	cmd.AddCommand(newArchivePutCmd())
	cmd.AddCommand(newArchiveListCmd())
	cmd.AddCommand(newArchiveRestoreCmd())
	cmd.AddCommand(newArchiveDeleteCmd())
	return cmd
}

func openArchive(cmd *cobra.Command) (*archive.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	acfg := archive.Config{Path: cfg.Archive.Path}
	if verbose {
		acfg.Logger = slog.Default()
	}
	store, err := archive.Open(acfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}
	return store, cfg, nil
}

func newArchivePutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <name>",
		Short: "Store a copy of the snapshot under name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			path := cfg.ResolveSnapshot(snapshotPath)
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer f.Close()

			meta := archive.Meta{IDWidth: cfg.Graph.IDWidth, Strategy: cfg.Graph.Strategy}
			if s, found, err := settings.Read(path); err == nil && found {
				meta = archive.Meta{IDWidth: s.IDWidth, Strategy: s.Strategy}
			}
			entry, err := store.Put(cmd.Context(), args[0], meta, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %s as %s (%d bytes)\n", path, idStyle.Render(entry.ID), entry.Size)
			return nil
		},
	}
}

func newArchiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list archive: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No archived snapshots.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-20s %10d bytes  %2d-bit %-4s  %s\n",
					idStyle.Render(e.ID), e.Name, e.Size, e.IDWidth, e.Strategy,
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newArchiveRestoreCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "restore <id|name>",
		Short: "Write an archived snapshot back to the snapshot path",
		Long: `Write an archived snapshot back to the snapshot path. A name selects
the most recent copy stored under it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := resolveArchiveID(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			entry, err := store.Restore(cmd.Context(), id, &buf)
			if err != nil {
				return fmt.Errorf("restore %s: %w", args[0], err)
			}

			path := cfg.ResolveSnapshot(snapshotPath)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			if entry.IDWidth != 0 {
				if err := settings.Write(path, settings.New(entry.IDWidth, entry.Strategy)); err != nil {
					return err
				}
			}
			if check {
				g, _, err := openGraph(cmd.Context(), path, archiveShape(entry, cfg))
				if err != nil {
					return err
				}
				if err := g.Verify(); err != nil {
					return fmt.Errorf("verify restored snapshot: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s (%s) to %s\n", entry.Name, idStyle.Render(entry.ID), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "verify", true, "load and verify the restored snapshot")
	return cmd
}

func newArchiveDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// resolveArchiveID maps ref to an entry id. ref is tried as an id first and
// then as a name.
func resolveArchiveID(ctx context.Context, store *archive.Store, ref string) (string, error) {
	_, err := store.Get(ctx, ref)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, archive.ErrNotFound) {
		return "", err
	}
	ids, err := store.FindByName(ctx, ref)
	if err != nil {
		return "", err
	}
	var latest archive.Entry
	for _, id := range ids {
		e, err := store.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if latest.ID == "" || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest.ID == "" {
		return "", fmt.Errorf("restore %s: %w", ref, archive.ErrNotFound)
	}
	return latest.ID, nil
}

// archiveShape reports the graph shape recorded for an entry, falling back
// to cfg when the entry predates shape tracking.
func archiveShape(e archive.Entry, cfg *config.Config) engine.Options {
	if e.IDWidth == 0 {
		return cfg.EngineOptions()
	}
	return engine.Options{Width: e.IDWidth, Strategy: engine.Strategy(e.Strategy)}
}
