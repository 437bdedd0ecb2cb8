package config

import (
	"fmt"
	"regexp"
	"strings"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// minUsefulTimeoutMS is the shortest client deadline that still leaves room
// for an interactive prompt round trip.
const minUsefulTimeoutMS = 100

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if !envNamePattern.MatchString(cfg.WindowEnv) {
		return nil, fmt.Errorf("window_env must be a valid environment variable name, got %q", cfg.WindowEnv)
	}
	if !logLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	if cfg.Client.TimeoutMS < 0 {
		return nil, fmt.Errorf("client.timeout_ms must be >= 0")
	}
	if cfg.Client.TimeoutMS > 0 && cfg.Client.TimeoutMS < minUsefulTimeoutMS {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("client.timeout_ms=%d is shorter than %dms; prompts will likely time out", cfg.Client.TimeoutMS, minUsefulTimeoutMS)})
	}
	if strings.TrimSpace(cfg.Host.Class) == "" {
		return nil, fmt.Errorf("host.class must not be empty")
	}
	if strings.TrimSpace(cfg.Host.Profile) == "" {
		return nil, fmt.Errorf("host.profile must not be empty")
	}
	if strings.ContainsAny(cfg.Host.Profile, `/\`) {
		return nil, fmt.Errorf("host.profile must not contain path separators")
	}
	if strings.TrimSpace(cfg.Host.HomePage) == "" {
		return nil, fmt.Errorf("host.home_page must not be empty")
	}

	return warnings, nil
}
