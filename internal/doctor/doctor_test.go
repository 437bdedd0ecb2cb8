package doctor

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rbright/dwbremote/internal/config"
	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/transport/memory"
	"github.com/rbright/dwbremote/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func loaded() config.Loaded {
	return config.Loaded{Path: "/tmp/config.jsonc", Config: config.Default(), Exists: true}
}

func addEndpoint(t *testing.T, d *memory.Display, pid uint32, focusID int32) transport.Window {
	t.Helper()
	w, err := d.CreateWindow(d.Root(), transport.WindowAttrs{Class: transport.WMClass{Instance: "dwb", Class: "Dwb"}, Pid: pid})
	require.NoError(t, err)
	conn := d.Connect()
	require.NoError(t, conn.WriteInt(w, wire.StatusSlot, 0))
	if focusID > 0 {
		require.NoError(t, conn.WriteInt(w, wire.FocusID, focusID))
	}
	return w
}

func TestRunHealthyDisplay(t *testing.T) {
	d := memory.NewDisplay()
	addEndpoint(t, d, 4242, 0)
	focused := addEndpoint(t, d, 4243, 3)

	report := Run(context.Background(), loaded(), Options{
		Dial:        func(string) (transport.Conn, error) { return d.Connect(), nil },
		ProcessName: func(_ context.Context, pid int32) (string, error) { return "dwb-ipcd", nil },
		Getenv:      env(map[string]string{"DISPLAY": ":0", "DWB_WINID": focused.String()}),
	})

	require.True(t, report.OK(), report.String())
	text := report.String()
	require.Contains(t, text, "[OK] DISPLAY: :0")
	require.Contains(t, text, "[OK] endpoints: 2 dwb window(s)")
	require.Contains(t, text, focused.String()+" holds focus id 3")
	require.Contains(t, text, "pid 4242 (dwb-ipcd)")
	require.Contains(t, text, "default target "+focused.String())
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name     string
		opts     func(d *memory.Display) Options
		setup    func(t *testing.T, d *memory.Display)
		wantFail string
	}{
		{
			name: "no display",
			opts: func(*memory.Display) Options {
				return Options{Getenv: env(nil)}
			},
			wantFail: "[FAIL] DISPLAY",
		},
		{
			name: "dial error",
			opts: func(*memory.Display) Options {
				return Options{
					Getenv: env(map[string]string{"DISPLAY": ":9"}),
					Dial:   func(string) (transport.Conn, error) { return nil, errors.New("connection refused") },
				}
			},
			wantFail: "[FAIL] display: connection refused",
		},
		{
			name: "no endpoints",
			opts: func(d *memory.Display) Options {
				return Options{
					Getenv: env(map[string]string{"DISPLAY": ":0"}),
					Dial:   func(string) (transport.Conn, error) { return d.Connect(), nil },
				}
			},
			wantFail: "[FAIL] endpoints",
		},
		{
			name: "bad default window",
			opts: func(d *memory.Display) Options {
				return Options{
					Getenv: env(map[string]string{"DISPLAY": ":0", "DWB_WINID": "nope"}),
					Dial:   func(string) (transport.Conn, error) { return d.Connect(), nil },
				}
			},
			setup:    func(t *testing.T, d *memory.Display) { addEndpoint(t, d, 1, 0) },
			wantFail: "[FAIL] DWB_WINID",
		},
		{
			name: "missing pid",
			opts: func(d *memory.Display) Options {
				return Options{
					Getenv:      env(map[string]string{"DISPLAY": ":0"}),
					Dial:        func(string) (transport.Conn, error) { return d.Connect(), nil },
					ProcessName: func(context.Context, int32) (string, error) { return "x", nil },
				}
			},
			setup:    func(t *testing.T, d *memory.Display) { addEndpoint(t, d, 0, 0) },
			wantFail: "no _NET_WM_PID",
		},
		{
			name: "stale process",
			opts: func(d *memory.Display) Options {
				return Options{
					Getenv:      env(map[string]string{"DISPLAY": ":0"}),
					Dial:        func(string) (transport.Conn, error) { return d.Connect(), nil },
					ProcessName: func(context.Context, int32) (string, error) { return "", errors.New("process not found") },
				}
			},
			setup:    func(t *testing.T, d *memory.Display) { addEndpoint(t, d, 77, 0) },
			wantFail: "pid 77: process not found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := memory.NewDisplay()
			if tc.setup != nil {
				tc.setup(t, d)
			}
			report := Run(context.Background(), loaded(), tc.opts(d))
			require.False(t, report.OK())
			require.Contains(t, report.String(), tc.wantFail)
		})
	}
}

func TestConfigDisplayOverridesEnvironment(t *testing.T) {
	cfg := loaded()
	cfg.Config.Display = ":7"
	var dialed string
	report := Run(context.Background(), cfg, Options{
		Getenv: env(map[string]string{"DISPLAY": ":0"}),
		Dial: func(display string) (transport.Conn, error) {
			dialed = display
			return nil, errors.New("down")
		},
	})
	require.False(t, report.OK())
	require.Equal(t, ":7", dialed)
}

func TestProcessNameFindsSelf(t *testing.T) {
	name, err := processName(context.Background(), int32(os.Getpid()))
	require.NoError(t, err)
	require.NotEmpty(t, name)
}
