package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/jsonc"
)

type jsoncConfig struct {
	Display   *string      `json:"display"`
	WindowEnv *string      `json:"window_env"`
	LogLevel  *string      `json:"log_level"`
	Client    *jsoncClient `json:"client"`
	Host      *jsoncHost   `json:"host"`
}

type jsoncClient struct {
	ShowID    *bool `json:"show_id"`
	TimeoutMS *int  `json:"timeout_ms"`
}

type jsoncHost struct {
	Class       *string `json:"class"`
	Instance    *string `json:"instance"`
	Title       *string `json:"title"`
	Profile     *string `json:"profile"`
	Session     *string `json:"session"`
	SessionFile *string `json:"session_file"`
	HistoryDB   *string `json:"history_db"`
	HomePage    *string `json:"home_page"`
}

// Parse reads JSONC configuration content over base. Comments and trailing
// commas are accepted; unknown keys are rejected.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	normalized := string(jsonc.ToJSON([]byte(content)))

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Display != nil {
		cfg.Display = strings.TrimSpace(*payload.Display)
	}
	if payload.WindowEnv != nil {
		cfg.WindowEnv = strings.TrimSpace(*payload.WindowEnv)
	}
	if payload.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*payload.LogLevel))
	}

	if payload.Client != nil {
		if payload.Client.ShowID != nil {
			cfg.Client.ShowID = *payload.Client.ShowID
		}
		if payload.Client.TimeoutMS != nil {
			cfg.Client.TimeoutMS = *payload.Client.TimeoutMS
		}
	}

	if h := payload.Host; h != nil {
		setTrimmed(&cfg.Host.Class, h.Class)
		setTrimmed(&cfg.Host.Instance, h.Instance)
		setTrimmed(&cfg.Host.Title, h.Title)
		setTrimmed(&cfg.Host.Profile, h.Profile)
		setTrimmed(&cfg.Host.Session, h.Session)
		setTrimmed(&cfg.Host.SessionFile, h.SessionFile)
		setTrimmed(&cfg.Host.HistoryDB, h.HistoryDB)
		setTrimmed(&cfg.Host.HomePage, h.HomePage)
	}
}

func setTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
