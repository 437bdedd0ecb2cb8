package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseTrimsAndNormalizesFields(t *testing.T) {
	cfg, _, err := Parse(`{
  "window_env": "  MY_WINID ",
  "log_level": " DEBUG ",
  "host": {"class": "  Dwb  ", "home_page": " https://example.com "}
}`, Default())
	require.NoError(t, err)
	require.Equal(t, "MY_WINID", cfg.WindowEnv)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "Dwb", cfg.Host.Class)
	require.Equal(t, "https://example.com", cfg.Host.HomePage)
}

func TestParseRetainsCommentLikeTextInsideStrings(t *testing.T) {
	cfg, _, err := Parse(`{"host": {"home_page": "http://example.com/* not a comment */"},}`, Default())
	require.NoError(t, err)
	require.Equal(t, "http://example.com/* not a comment */", cfg.Host.HomePage)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, _, err := Parse(`{"riva": {"grpc": "127.0.0.1:50051"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := Parse(`{"display":":0"}{}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestParseTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := Parse(`{
  "client": {"timeout_ms": "soon"}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "column")
}

func TestParseShortTimeoutWarns(t *testing.T) {
	_, warnings, err := Parse(`{"client": {"timeout_ms": 10}}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "client.timeout_ms=10")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8) // line2, col2
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 5, col)
}
