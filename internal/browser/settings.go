package browser

import (
	"fmt"
	"strconv"

	"github.com/rbright/dwbremote/internal/server"
)

func defaultSettings(homePage string) map[string]server.Setting {
	return map[string]server.Setting{
		"homepage":                {Kind: server.SettingString, String: homePage},
		"user-agent":              {Kind: server.SettingString, String: "dwb-ipcd"},
		"scroll-step":             {Kind: server.SettingInt, Int: 40},
		"default-font-size":       {Kind: server.SettingInt, Int: 12},
		"zoom-step":               {Kind: server.SettingFloat, Float: 0.1},
		"default-zoom":            {Kind: server.SettingFloat, Float: 1.0},
		"enable-scripts":          {Kind: server.SettingBool, Bool: true},
		"enable-private-browsing": {Kind: server.SettingBool, Bool: false},
	}
}

// settingFromYAML converts a decoded YAML scalar into a setting.
func settingFromYAML(value any) (server.Setting, error) {
	switch v := value.(type) {
	case int:
		return server.Setting{Kind: server.SettingInt, Int: v}, nil
	case float64:
		return server.Setting{Kind: server.SettingFloat, Float: v}, nil
	case bool:
		return server.Setting{Kind: server.SettingBool, Bool: v}, nil
	case string:
		return server.Setting{Kind: server.SettingString, String: v}, nil
	default:
		return server.Setting{}, fmt.Errorf("unsupported setting value %v (%T)", value, value)
	}
}

func settingToYAML(s server.Setting) any {
	switch s.Kind {
	case server.SettingInt:
		return s.Int
	case server.SettingFloat:
		return s.Float
	case server.SettingBool:
		return s.Bool
	default:
		return s.String
	}
}

// parseSetting interprets raw with the kind of the existing setting. New
// settings are strings.
func parseSetting(current server.Setting, exists bool, raw string) (server.Setting, error) {
	if !exists {
		return server.Setting{Kind: server.SettingString, String: raw}, nil
	}
	switch current.Kind {
	case server.SettingInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return current, fmt.Errorf("expected integer: %w", err)
		}
		return server.Setting{Kind: server.SettingInt, Int: n}, nil
	case server.SettingFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return current, fmt.Errorf("expected number: %w", err)
		}
		return server.Setting{Kind: server.SettingFloat, Float: f}, nil
	case server.SettingBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return current, fmt.Errorf("expected boolean: %w", err)
		}
		return server.Setting{Kind: server.SettingBool, Bool: b}, nil
	default:
		return server.Setting{Kind: server.SettingString, String: raw}, nil
	}
}
