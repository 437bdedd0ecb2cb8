package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rbright/dwbremote/internal/cli"
	"github.com/rbright/dwbremote/internal/client"
	"github.com/rbright/dwbremote/internal/doctor"
	"github.com/rbright/dwbremote/internal/transport"
)

// Remote runs dwbremote. The exit code is the sum of the target statuses.
func (r Runner) Remote(ctx context.Context, args []string) int {
	parsed, err := cli.ParseRemote(args)
	if err != nil {
		return r.usage(cli.BinaryRemote, err)
	}
	if code, done := r.informational(cli.BinaryRemote, parsed.Mode); done {
		return code
	}

	env, err := r.start(cli.BinaryRemote, parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer env.close()
	cfg := env.cfg.Config
	logger := env.logger

	if parsed.Mode == cli.ModeDoctor {
		report := doctor.Run(ctx, env.cfg, doctor.Options{Dial: doctor.Dialer(r.dial), Getenv: r.getenv})
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	}

	conn, err := r.dial(cfg.Display)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("open display failed", "display", cfg.Display, "error", err.Error())
		return 1
	}
	defer conn.Close()

	remote := client.Remote{Conn: conn, Out: r.Stdout, ShowID: cfg.Client.ShowID, Logger: logger}
	if parsed.ShowIDSet {
		remote.ShowID = parsed.ShowID
	}

	if parsed.Mode == cli.ModeList {
		for _, w := range remote.List() {
			fmt.Fprintf(r.Stdout, "%d\n", uint32(w))
		}
		return 0
	}

	sel, err := selectorFor(parsed, r.getenv(cfg.WindowEnv))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	targets, err := client.Resolve(conn, conn.Root(), sel)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Warn("no target resolved", "selectors", fmt.Sprint(sel.Filters()), "error", err.Error())
		return 1
	}

	logger.Info("command start", "command", cli.CommandLine(parsed.Args), "targets", len(targets))

	waitCtx, cancel := waitContext(ctx, parsed.Timeout, parsed.TimeoutSet, cfg.Client.Timeout())
	defer cancel()

	code, err := remote.Run(waitCtx, targets, parsed.Args)
	if err != nil {
		return r.waitFailed(err, code)
	}
	logger.Info("command finished", "command", parsed.Args[0], "status", code)
	return code
}

// waitFailed reports an interrupted exchange. Statuses already collected
// are kept; the failure adds 1.
func (r Runner) waitFailed(err error, code int) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(r.Stderr, "error: timed out waiting for reply")
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(r.Stderr, "error: interrupted")
	default:
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
	}
	return code + 1
}

func selectorFor(parsed cli.Remote, envID string) (client.Selector, error) {
	sel := client.Selector{
		Classes: parsed.Classes,
		Names:   parsed.Names,
		All:     parsed.All,
		EnvID:   envID,
	}
	for _, raw := range parsed.IDs {
		w, err := transport.ParseWindow(raw)
		if err != nil {
			return client.Selector{}, err
		}
		sel.IDs = append(sel.IDs, w)
	}
	for _, pid := range parsed.Pids {
		if pid == 0 || pid > math.MaxUint32 {
			return client.Selector{}, fmt.Errorf("invalid pid %d", pid)
		}
		sel.Pids = append(sel.Pids, uint32(pid))
	}
	return sel, nil
}
