package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/config"
	"github.com/imyousuf/slotgraph/internal/settings"
)

// Style definitions for config view.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	labelStyle = lipgloss.NewStyle().
			Faint(true).
			Width(18)
	valueStyle = lipgloss.NewStyle()
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit slotgraph configuration",
		Long: `View or edit slotgraph configuration.

By default, displays the effective configuration (file, environment and
defaults merged). Use 'config edit' to edit it interactively.`,
		RunE: runConfigView,
	}

	cmd.AddCommand(newConfigEditCmd())

	return cmd
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	title := "slotgraph Configuration"
	fmt.Fprintln(out, headerStyle.Render(title))
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", len(title))))
	fmt.Fprintln(out)

	printSection(out, "Graph")
	path := cfg.ResolveSnapshot(snapshotPath)
	printKV(out, "Snapshot", path)
	printKV(out, "Id width", strconv.Itoa(cfg.Graph.IDWidth)+" bits")
	printKV(out, "Strategy", cfg.Graph.Strategy)
	if s, found, err := settings.Read(path); err == nil && found {
		printKV(out, "On disk", fmt.Sprintf("format %s, %d-bit %s", s.Version, s.IDWidth, s.Strategy))
	}
	fmt.Fprintln(out)

	printSection(out, "Archive")
	printKV(out, "Path", cfg.Archive.Path)
	fmt.Fprintln(out)

	printSection(out, "Watch")
	printKV(out, "Debounce", cfg.Watch.Debounce.String())
	fmt.Fprintln(out)

	printSection(out, "Logging")
	printKV(out, "Level", cfg.Log.Level)
	printKV(out, "Verbose", boolYesNo(verbose))
	fmt.Fprintln(out)

	return nil
}

func printSection(out io.Writer, title string) {
	fmt.Fprintf(out, "  %s\n", headerStyle.Render(title))
}

func printKV(out io.Writer, label, value string) {
	fmt.Fprintf(out, "    %s%s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func boolYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration interactively",
		Long:  `Edit the slotgraph configuration file using an interactive wizard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigEdit(cmd)
		},
	}
}

func runConfigEdit(cmd *cobra.Command) error {
	path := configFilePath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no config file at %s; run 'slotgraph init' first", path)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok, err := runConfigForm(cfg, "Save changes?", "Save")
	if err != nil {
		return fmt.Errorf("interactive config edit: %w", err)
	}
	if !ok {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.WriteConfig(cfg, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to %s\n", path)
	return nil
}
