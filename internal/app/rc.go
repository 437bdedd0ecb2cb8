package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbright/dwbremote/internal/cli"
	"github.com/rbright/dwbremote/internal/client"
	"github.com/rbright/dwbremote/internal/transport"
)

// RC runs dwbrc: one command to one window, exiting with its status.
func (r Runner) RC(ctx context.Context, args []string) int {
	parsed, err := cli.ParseRC(args)
	if err != nil {
		return r.usage(cli.BinaryRC, err)
	}
	if code, done := r.informational(cli.BinaryRC, parsed.Mode); done {
		return code
	}

	env, err := r.start(cli.BinaryRC, parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer env.close()
	cfg := env.cfg.Config
	logger := env.logger

	raw := parsed.ID
	if raw == "" {
		raw = r.getenv(cfg.WindowEnv)
	}
	if raw == "" {
		fmt.Fprintf(r.Stderr, "error: %v: pass -i or set $%s\n", client.ErrNoTarget, cfg.WindowEnv)
		return 1
	}
	target, err := transport.ParseWindow(raw)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	conn, err := r.dial(cfg.Display)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("open display failed", "display", cfg.Display, "error", err.Error())
		return 1
	}
	defer conn.Close()

	waitCtx, cancel := waitContext(ctx, parsed.Timeout, parsed.TimeoutSet, cfg.Client.Timeout())
	defer cancel()

	logger.Info("command start", "command", cli.CommandLine(parsed.Args), "window", target.String())
	code, err := client.SendOnce(waitCtx, conn, target, parsed.Args, r.Stdout)
	switch {
	case errors.Is(err, client.ErrTargetDestroyed) && client.IsPersistent(parsed.Args[0]):
		logger.Info("subscription ended", "window", target.String())
		return code
	case err != nil:
		logger.Warn("command failed", "window", target.String(), "error", err.Error())
		return r.waitFailed(err, 0)
	}
	logger.Info("command finished", "command", parsed.Args[0], "status", code)
	return code
}
