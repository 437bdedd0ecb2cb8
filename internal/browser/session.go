package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Session is the on-disk tab state of one instance.
type Session struct {
	Name     string         `yaml:"name"`
	Current  int            `yaml:"current"`
	Tabs     []SessionTab   `yaml:"tabs"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

type SessionTab struct {
	URI   string `yaml:"uri"`
	Title string `yaml:"title,omitempty"`
}

// LoadSession reads a YAML session file. A missing file yields an empty
// session and no error.
func LoadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session %q: %w", path, err)
	}

	var session Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("parse session %q: %w", path, err)
	}
	if session.Current < 0 || (len(session.Tabs) > 0 && session.Current >= len(session.Tabs)) {
		return Session{}, fmt.Errorf("session %q: current tab %d out of range", path, session.Current)
	}
	return session, nil
}

// SaveSession writes session atomically.
func SaveSession(path string, session Session) error {
	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}
