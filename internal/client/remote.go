package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/dwbremote/internal/discovery"
	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/wire"
)

// Remote drives any number of targets over one connection.
type Remote struct {
	Conn   transport.Conn
	Out    io.Writer
	ShowID bool
	Logger *slog.Logger
}

// Run sends args to targets. One-shot commands run against each target in
// turn and return the sum of their statuses; a destroyed target counts as 1.
// Subscriptions go to every target at once and return 0 once at most one
// target is left alive.
func (r *Remote) Run(ctx context.Context, targets []transport.Window, args []string) (int, error) {
	if len(args) == 0 {
		return 0, wire.ErrEmptyMessage
	}
	if len(targets) == 0 {
		return 0, ErrNoTarget
	}
	if IsPersistent(args[0]) {
		return r.broadcast(ctx, targets, args)
	}

	sum := 0
	for _, target := range targets {
		prefix := ""
		if r.ShowID {
			prefix = target.String() + " "
		}
		code, err := exchange(ctx, r.Conn, target, args, r.Out, prefix)
		switch {
		case errors.Is(err, ErrTargetDestroyed):
			r.log().Warn("target destroyed before status", "window", target.String())
			sum++
		case err != nil:
			return sum, err
		default:
			r.log().Debug("command finished", "window", target.String(), "command", args[0], "status", code)
			sum += code
		}
	}
	return sum, nil
}

func (r *Remote) broadcast(ctx context.Context, targets []transport.Window, args []string) (int, error) {
	var live []transport.Window
	for _, target := range targets {
		if err := send(r.Conn, target, args); err != nil {
			r.log().Warn("skipping target", "window", target.String(), "error", err.Error())
			continue
		}
		live = append(live, target)
	}
	if len(live) == 0 {
		return 1, fmt.Errorf("subscribe %s: %w", args[0], ErrNoTarget)
	}

	err := subscribe(ctx, r.Conn, live, args, r.Out, r.ShowID, func(remaining int) bool {
		r.log().Debug("target destroyed", "remaining", remaining)
		return remaining <= 1
	})
	if err != nil {
		return 0, err
	}
	return 0, nil
}

// List returns every endpoint under the root.
func (r *Remote) List() []transport.Window {
	return discovery.Discover(r.Conn, r.Conn.Root(), discovery.Any(), false)
}

func (r *Remote) log() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return r.Logger
}
