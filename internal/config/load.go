package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Loaded is a resolved configuration together with where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	// Exists is false when no file was found and defaults are in effect.
	Exists bool
}

// Load reads the config file at explicitPath, or the default location, over
// Default(). A missing file is not an error.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Loaded{
			Path:     path,
			Config:   Default(),
			Warnings: []Warning{{Message: fmt.Sprintf("no config at %q, using defaults", path)}},
		}, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, warnings, err := Parse(string(content), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("config %q: %w", path, err)
	}
	return Loaded{Path: path, Config: cfg, Warnings: warnings, Exists: true}, nil
}

// Timeout is the configured reply deadline; zero waits forever.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Paths returns the session file and history database the host uses, filling
// unset ones in under the state directory.
func (h HostConfig) Paths() (session, history string, err error) {
	session = h.SessionFile
	if session == "" {
		if session, err = StatePath("sessions", h.Session+".yaml"); err != nil {
			return "", "", err
		}
	}
	history = h.HistoryDB
	if history == "" {
		if history, err = StatePath("profiles", h.Profile, "history.db"); err != nil {
			return "", "", err
		}
	}
	return session, history, nil
}
