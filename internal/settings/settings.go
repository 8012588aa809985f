// Package settings reads and writes the TOML sidecar stored next to a
// snapshot. The sidecar records the format version and the graph shape the
// snapshot was written with.
package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FormatVersion is the snapshot format written by this build.
const FormatVersion = "4.0"

// Suffix is appended to the snapshot path to name its sidecar.
const Suffix = ".toml"

// Settings is the sidecar content.
type Settings struct {
	Version  string `toml:"version"`
	IDWidth  int    `toml:"id_width"`
	Strategy string `toml:"strategy"`
}

// New returns settings for the current format.
func New(width int, strategy string) Settings {
	return Settings{Version: FormatVersion, IDWidth: width, Strategy: strategy}
}

// Path returns the sidecar path for a snapshot.
func Path(snapshot string) string {
	return snapshot + Suffix
}

// Write stores s next to snapshot.
func Write(snapshot string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(Path(snapshot), data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Read loads the sidecar for snapshot. found is false when no sidecar
// exists; that is not an error.
func Read(snapshot string) (s Settings, found bool, err error) {
	data, err := os.ReadFile(Path(snapshot))
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, false, fmt.Errorf("parse settings %s: %w", Path(snapshot), err)
	}
	return s, true, nil
}

// Compatible checks that a snapshot described by s can be read by this
// build. Only the format version matters: width and strategy are free to
// differ because the loader narrows ids with overflow checks.
func (s Settings) Compatible() error {
	if s.Version != FormatVersion {
		return fmt.Errorf("snapshot format %q is not supported (want %q)", s.Version, FormatVersion)
	}
	return nil
}
