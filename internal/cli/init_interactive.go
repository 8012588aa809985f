package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/imyousuf/slotgraph/internal/config"
	"github.com/imyousuf/slotgraph/internal/engine"
)

// runConfigForm shows the configuration wizard pre-filled from cfg and
// writes the answers back into cfg. It reports false when the user
// cancelled.
func runConfigForm(cfg *config.Config, confirmTitle, affirmative string) (bool, error) {
	var (
		snapshot = cfg.Graph.Snapshot
		width    = cfg.Graph.IDWidth
		strategy = cfg.Graph.Strategy
		archive  = cfg.Archive.Path
		debounce = cfg.Watch.Debounce.String()
		level    = cfg.Log.Level
		confirm  bool
	)

	widthOptions := make([]huh.Option[int], 0, len(engine.Widths))
	for _, w := range engine.Widths {
		widthOptions = append(widthOptions, huh.NewOption(strconv.Itoa(w)+"-bit ids", w))
	}

	notEmpty := func(what string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s cannot be empty", what)
			}
			return nil
		}
	}

	form := huh.NewForm(
		// Group 1: Graph
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot file").
				Value(&snapshot).
				Validate(notEmpty("snapshot path")),
			huh.NewSelect[int]().
				Title("Node id width").
				Description("Wider ids allow more slots; narrower ids make smaller graphs").
				Options(widthOptions...).
				Value(&width),
			huh.NewSelect[string]().
				Title("Fan-out strategy").
				Options(
					huh.NewOption("Hash map (fast lookups)", string(engine.StrategyHash)),
					huh.NewOption("Flat list (compact, ordered)", string(engine.StrategyFlat)),
				).
				Value(&strategy),
		).Title("Graph"),

		// Group 2: Storage and runtime
		huh.NewGroup(
			huh.NewInput().
				Title("Archive directory").
				Value(&archive).
				Validate(notEmpty("archive directory")),
			huh.NewInput().
				Title("Watch debounce").
				Placeholder("100ms").
				Value(&debounce).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil {
						return err
					}
					if d < 0 {
						return errors.New("debounce must not be negative")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&level),
		).Title("Storage"),

		// Group 3: Confirm
		huh.NewGroup(
			huh.NewNote().
				Title("Summary").
				DescriptionFunc(func() string {
					return fmt.Sprintf(
						"Snapshot:  %s\n"+
							"Ids:       %d-bit\n"+
							"Strategy:  %s\n"+
							"Archive:   %s\n"+
							"Debounce:  %s\n"+
							"Log level: %s",
						snapshot, width, strategy, archive, debounce, level,
					)
				}, &strategy),
			huh.NewConfirm().
				Title(confirmTitle).
				Value(&confirm).
				Affirmative(affirmative).
				Negative("Cancel"),
		).Title("Confirm"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	if !confirm {
		return false, nil
	}

	d, err := time.ParseDuration(debounce)
	if err != nil {
		return false, err
	}
	cfg.Graph.Snapshot = snapshot
	cfg.Graph.IDWidth = width
	cfg.Graph.Strategy = strategy
	cfg.Archive.Path = archive
	cfg.Watch.Debounce = d
	cfg.Log.Level = level
	return true, nil
}
