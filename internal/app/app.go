// Package app runs the dwbremote, dwbrc and dwb-ipcd binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/dwbremote/internal/cli"
	"github.com/rbright/dwbremote/internal/config"
	"github.com/rbright/dwbremote/internal/logging"
	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/transport/x11"
	"github.com/rbright/dwbremote/internal/version"
)

// Dialer opens a display connection. An empty display means $DISPLAY.
type Dialer func(display string) (transport.Conn, error)

// Runner carries the process environment. Zero fields fall back to the
// real system.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Stdin answers host prompts when set.
	Stdin  io.Reader
	Logger *slog.Logger
	Dial   Dialer
	Getenv func(string) string
}

func ExecuteRemote(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Remote(ctx, args)
}

func ExecuteRC(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.RC(ctx, args)
}

func ExecuteHost(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Host(ctx, args)
}

func dialX11(display string) (transport.Conn, error) {
	conn, err := x11.Open(display)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (r Runner) dial(display string) (transport.Conn, error) {
	if r.Dial != nil {
		return r.Dial(display)
	}
	return dialX11(display)
}

func (r Runner) getenv(key string) string {
	if r.Getenv != nil {
		return r.Getenv(key)
	}
	return os.Getenv(key)
}

// usage reports a command-line error the way every binary does.
func (r Runner) usage(binary string, err error) int {
	fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
	fmt.Fprint(r.Stderr, cli.HelpText(binary))
	return 2
}

// informational handles help and version modes.
func (r Runner) informational(binary string, mode cli.Mode) (int, bool) {
	switch mode {
	case cli.ModeHelp:
		fmt.Fprint(r.Stdout, cli.HelpText(binary))
		return 0, true
	case cli.ModeVersion:
		fmt.Fprintln(r.Stdout, version.String(binary))
		return 0, true
	default:
		return 0, false
	}
}

type runEnv struct {
	cfg    config.Loaded
	logger *slog.Logger
	close  func()
}

// start loads configuration and opens the log. Config warnings are only
// shown for files that exist.
func (r Runner) start(binary, configPath string) (runEnv, error) {
	loaded, err := config.Load(configPath)
	if err != nil {
		return runEnv{}, err
	}

	rt := runEnv{cfg: loaded, logger: r.Logger, close: func() {}}
	if rt.logger == nil {
		logRuntime, err := logging.New(binary, logging.ParseLevel(loaded.Config.LogLevel))
		if err != nil {
			return runEnv{}, fmt.Errorf("setup logging: %w", err)
		}
		rt.logger = logRuntime.Logger
		rt.close = func() { _ = logRuntime.Close() }
	}

	for _, w := range loaded.Warnings {
		rt.logger.Warn("config warning", "line", w.Line, "message", w.Message)
		if !loaded.Exists {
			continue
		}
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
	}
	return rt, nil
}

// waitContext bounds ctx by the flag timeout, else the configured one.
func waitContext(ctx context.Context, flag time.Duration, flagSet bool, configured time.Duration) (context.Context, context.CancelFunc) {
	timeout := configured
	if flagSet {
		timeout = flag
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
