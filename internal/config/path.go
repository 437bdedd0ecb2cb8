package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "dwbremote", "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "dwbremote", "config.jsonc"), nil
}

// StatePath joins parts under $XDG_STATE_HOME/dwbremote, falling back to
// ~/.local/state/dwbremote.
func StatePath(parts ...string) (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("unable to resolve user home for state fallback")
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(append([]string{base, "dwbremote"}, parts...)...), nil
}
