package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRemoteMatrix(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, got Remote)
	}{
		{
			name:    "no arguments",
			args:    nil,
			wantErr: "missing command",
		},
		{
			name: "help",
			args: []string{"-h"},
			check: func(t *testing.T, got Remote) {
				require.Equal(t, ModeHelp, got.Mode)
			},
		},
		{
			name: "version",
			args: []string{"--version"},
			check: func(t *testing.T, got Remote) {
				require.Equal(t, ModeVersion, got.Mode)
			},
		},
		{
			name: "list without command",
			args: []string{"-l"},
			check: func(t *testing.T, got Remote) {
				require.Equal(t, ModeList, got.Mode)
				require.Empty(t, got.Args)
			},
		},
		{
			name: "doctor",
			args: []string{"--doctor"},
			check: func(t *testing.T, got Remote) {
				require.Equal(t, ModeDoctor, got.Mode)
			},
		},
		{
			name: "selectors repeat and combine",
			args: []string{"-i", "0x2a", "-i", "43", "-p", "100", "-p", "200", "-c", "Dwb", "-n", "work", "get", "uri"},
			check: func(t *testing.T, got Remote) {
				require.Equal(t, ModeRun, got.Mode)
				require.Equal(t, []string{"0x2a", "43"}, got.IDs)
				require.Equal(t, []uint{100, 200}, got.Pids)
				require.Equal(t, []string{"Dwb"}, got.Classes)
				require.Equal(t, []string{"work"}, got.Names)
				require.Equal(t, []string{"get", "uri"}, got.Args)
			},
		},
		{
			name: "command arguments keep their dashes",
			args: []string{"-a", "execute", "open", "-x"},
			check: func(t *testing.T, got Remote) {
				require.True(t, got.All)
				require.Equal(t, []string{"execute", "open", "-x"}, got.Args)
			},
		},
		{
			name: "class names keep commas",
			args: []string{"-c", "Dwb,Other", "get", "uri"},
			check: func(t *testing.T, got Remote) {
				require.Equal(t, []string{"Dwb,Other"}, got.Classes)
			},
		},
		{
			name: "show id and timeout",
			args: []string{"-s", "--timeout", "1500ms", "hook", "navigation"},
			check: func(t *testing.T, got Remote) {
				require.True(t, got.ShowID)
				require.True(t, got.ShowIDSet)
				require.True(t, got.TimeoutSet)
				require.Equal(t, 1500*time.Millisecond, got.Timeout)
			},
		},
		{
			name: "flags left unset",
			args: []string{"get", "uri"},
			check: func(t *testing.T, got Remote) {
				require.False(t, got.ShowIDSet)
				require.False(t, got.TimeoutSet)
			},
		},
		{
			name:    "bad pid",
			args:    []string{"-p", "abc", "get", "uri"},
			wantErr: "invalid argument",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus", "get", "uri"},
			wantErr: "unknown flag",
		},
		{
			name:    "negative timeout",
			args:    []string{"--timeout", "-1s", "get", "uri"},
			wantErr: "must not be negative",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRemote(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, got)
		})
	}
}

func TestParseRC(t *testing.T) {
	got, err := ParseRC([]string{"-i", "0x3c00001", "get", "title"})
	require.NoError(t, err)
	require.Equal(t, ModeRun, got.Mode)
	require.Equal(t, "0x3c00001", got.ID)
	require.Equal(t, []string{"get", "title"}, got.Args)

	got, err = ParseRC([]string{"-h"})
	require.NoError(t, err)
	require.Equal(t, ModeHelp, got.Mode)

	_, err = ParseRC([]string{"-i", "42"})
	require.ErrorContains(t, err, "missing command")

	_, err = ParseRC([]string{"-a", "get", "uri"})
	require.ErrorContains(t, err, "unknown shorthand flag")
}

func TestParseHost(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantMode Mode
		wantArgs []string
	}{
		{name: "run", args: []string{"--session", "work"}, wantMode: ModeRun},
		{name: "help", args: []string{"--help"}, wantMode: ModeHelp},
		{name: "ctl status", args: []string{"ctl", "status"}, wantMode: ModeControl, wantArgs: []string{"status"}},
		{name: "ctl exec", args: []string{"--session", "work", "ctl", "exec", "open", "example.com"}, wantMode: ModeControl, wantArgs: []string{"exec", "open", "example.com"}},
		{name: "ctl without command", args: []string{"ctl"}, wantErr: "requires a command"},
		{name: "ctl unknown", args: []string{"ctl", "dance"}, wantErr: "unknown ctl command"},
		{name: "ctl exec without line", args: []string{"ctl", "exec"}, wantErr: "requires a command line"},
		{name: "stray argument", args: []string{"serve"}, wantErr: "unexpected argument"},
		{name: "zero timeout", args: []string{"--timeout", "0s", "ctl", "status"}, wantErr: "must be positive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseHost(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantMode, got.Mode)
			require.Equal(t, tc.wantArgs, got.Args)
		})
	}

	got, err := ParseHost([]string{"--session", "work", "--profile", "p", "--title", "T"})
	require.NoError(t, err)
	require.Equal(t, "work", got.Session)
	require.Equal(t, "p", got.Profile)
	require.Equal(t, "T", got.Title)
	require.Equal(t, 2*time.Second, got.Timeout)
}

func TestHelpText(t *testing.T) {
	remote := HelpText(BinaryRemote)
	for _, want := range []string{"--all", "--class", "--id", "--list", "--name", "--pid", "--show-id", "hook NAME..."} {
		require.Contains(t, remote, want)
	}
	require.Contains(t, HelpText(BinaryRC), "$DWB_WINID")
	require.Contains(t, HelpText(BinaryHost), "ctl <status|exec|focus|save|quit>")
}
