// Package doctor runs readiness diagnostics for the display, the protocol
// endpoints on it, and the processes that own them.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/rbright/dwbremote/internal/config"
	"github.com/rbright/dwbremote/internal/discovery"
	"github.com/rbright/dwbremote/internal/transport"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Dialer opens a display connection.
type Dialer func(display string) (transport.Conn, error)

// ProcessNamer looks up the executable name of a process id.
type ProcessNamer func(ctx context.Context, pid int32) (string, error)

// Options overrides the environment lookups Run makes. Zero values use the
// live system.
type Options struct {
	Dial        Dialer
	ProcessName ProcessNamer
	Getenv      func(string) string
}

// Run executes environment and display checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded, opts Options) Report {
	if opts.ProcessName == nil {
		opts.ProcessName = processName
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	checks := []Check{configCheck(cfg)}

	display := cfg.Config.Display
	if display == "" {
		display = opts.Getenv("DISPLAY")
	}
	if display == "" {
		checks = append(checks, Check{Name: "DISPLAY", Pass: false, Message: "DISPLAY is empty and config sets no display"})
		return Report{Checks: checks}
	}
	checks = append(checks, Check{Name: "DISPLAY", Pass: true, Message: display})

	checks = append(checks, checkWindowEnv(cfg.Config.WindowEnv, opts.Getenv))

	if opts.Dial == nil {
		checks = append(checks, Check{Name: "display", Pass: false, Message: "no display dialer configured"})
		return Report{Checks: checks}
	}
	conn, err := opts.Dial(display)
	if err != nil {
		checks = append(checks, Check{Name: "display", Pass: false, Message: err.Error()})
		return Report{Checks: checks}
	}
	defer conn.Close()
	checks = append(checks, Check{Name: "display", Pass: true, Message: fmt.Sprintf("connected to %s", display)})

	endpoints := discovery.Discover(conn, conn.Root(), discovery.Any(), false)
	if len(endpoints) == 0 {
		checks = append(checks, Check{Name: "endpoints", Pass: false, Message: "no dwb windows found"})
		return Report{Checks: checks}
	}
	checks = append(checks, Check{Name: "endpoints", Pass: true, Message: fmt.Sprintf("%d dwb window(s)", len(endpoints))})
	checks = append(checks, checkFocus(conn))

	for _, w := range endpoints {
		checks = append(checks, checkOwner(ctx, conn, w, opts.ProcessName))
	}
	return Report{Checks: checks}
}

func configCheck(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", cfg.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)}
}

// checkWindowEnv validates the default window id variable when it is set.
func checkWindowEnv(name string, getenv func(string) string) Check {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return Check{Name: name, Pass: true, Message: "not set; focus arbitration picks the target"}
	}
	w, err := transport.ParseWindow(raw)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("default target %s", w)}
}

func checkFocus(conn transport.Conn) Check {
	w, id, ok := discovery.ArbitrateFocus(conn, conn.Root())
	if !ok {
		return Check{Name: "focus", Pass: true, Message: "no dwb window has been focused yet"}
	}
	return Check{Name: "focus", Pass: true, Message: fmt.Sprintf("%s holds focus id %d", w, id)}
}

// checkOwner resolves the process that owns endpoint w.
func checkOwner(ctx context.Context, tree discovery.Tree, w transport.Window, name ProcessNamer) Check {
	checkName := "owner " + w.String()
	pid, ok := tree.Pid(w)
	if !ok {
		return Check{Name: checkName, Pass: false, Message: "window has no _NET_WM_PID"}
	}
	exe, err := name(ctx, int32(pid))
	if err != nil {
		return Check{Name: checkName, Pass: false, Message: fmt.Sprintf("pid %d: %v", pid, err)}
	}
	return Check{Name: checkName, Pass: true, Message: fmt.Sprintf("pid %d (%s)", pid, exe)}
}

func processName(ctx context.Context, pid int32) (string, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return proc.NameWithContext(ctx)
}
