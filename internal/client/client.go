// Package client sends commands to protocol endpoints and relays their
// replies.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/wire"
)

var (
	ErrNoTarget        = errors.New("no target window")
	ErrTargetDestroyed = errors.New("target window destroyed")
	ErrStatusMissing   = errors.New("status slot empty after notification")
)

// IsPersistent reports whether command subscribes to a broadcast channel
// instead of waiting for a single status.
func IsPersistent(command string) bool {
	return command == "hook" || command == "bind"
}

// ReplyChannel returns the slot replies to command arrive on.
func ReplyChannel(command string) wire.Channel {
	switch command {
	case "hook":
		return wire.Hook
	case "bind":
		return wire.Bind
	default:
		return wire.ClientRead
	}
}

// SendOnce sends args to a single target. One-shot commands return the
// server status. Subscriptions print matching broadcasts until the target is
// destroyed and then return ErrTargetDestroyed.
func SendOnce(ctx context.Context, conn transport.Conn, target transport.Window, args []string, out io.Writer) (int, error) {
	if len(args) == 0 {
		return 0, wire.ErrEmptyMessage
	}
	if !IsPersistent(args[0]) {
		return exchange(ctx, conn, target, args, out, "")
	}

	if err := send(conn, target, args); err != nil {
		return 0, err
	}
	err := subscribe(ctx, conn, []transport.Window{target}, args, out, false, func(int) bool { return true })
	if err != nil {
		return 0, err
	}
	return 1, ErrTargetDestroyed
}

// send selects notifications on target before writing so no reply can be
// missed.
func send(conn transport.Conn, target transport.Window, args []string) error {
	if err := conn.Watch(target); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}
	if err := conn.WriteList(target, wire.ClientWrite, args); err != nil {
		return fmt.Errorf("send to %s: %w", target, err)
	}
	return nil
}

// exchange sends a one-shot command and waits for its status, printing any
// reply on the way.
func exchange(ctx context.Context, conn transport.Conn, target transport.Window, args []string, out io.Writer, prefix string) (int, error) {
	if err := send(conn, target, args); err != nil {
		return 0, err
	}

	for {
		ev, err := conn.NextEvent(ctx)
		if err != nil {
			return 0, fmt.Errorf("wait for %s: %w", target, err)
		}
		if ev.Window != target {
			continue
		}

		switch ev.Kind {
		case transport.EventDestroyed:
			return 0, ErrTargetDestroyed
		case transport.EventPropertyNewValue:
			switch ev.Channel {
			case wire.ClientRead:
				if list, ok := conn.ReadList(target, wire.ClientRead); ok {
					fmt.Fprintf(out, "%s%s\n", prefix, list[0])
				}
				if err := conn.Delete(target, wire.ClientRead); err != nil {
					return 0, fmt.Errorf("consume reply on %s: %w", target, err)
				}
			case wire.StatusSlot:
				code, ok := conn.ReadInt(target, wire.StatusSlot)
				if !ok {
					return 0, ErrStatusMissing
				}
				return int(code), nil
			}
		}
	}
}

// subscribe prints broadcasts from targets that echo one of args until done
// reports true for the number of targets still live after a destroy.
func subscribe(
	ctx context.Context,
	conn transport.Conn,
	targets []transport.Window,
	args []string,
	out io.Writer,
	showID bool,
	done func(live int) bool,
) error {
	channel := ReplyChannel(args[0])
	live := make(map[transport.Window]bool, len(targets))
	for _, target := range targets {
		live[target] = true
	}

	for {
		ev, err := conn.NextEvent(ctx)
		if err != nil {
			return fmt.Errorf("wait for broadcast: %w", err)
		}
		if !live[ev.Window] {
			continue
		}

		switch ev.Kind {
		case transport.EventDestroyed:
			delete(live, ev.Window)
			if done(len(live)) {
				return nil
			}
		case transport.EventPropertyNewValue:
			if ev.Channel != channel {
				continue
			}
			list, ok := conn.ReadList(ev.Window, channel)
			if !ok {
				continue
			}
			prefix := ""
			if showID {
				prefix = ev.Window.String() + " "
			}
			printMatches(out, prefix, list, args)
		}
	}
}

// printMatches prints "<name>[ <payload>]" for each requested name equal to
// the broadcast's first field.
func printMatches(out io.Writer, prefix string, list, args []string) {
	for _, name := range args {
		if list[0] != name {
			continue
		}
		if len(list) > 1 && list[1] != "" {
			fmt.Fprintf(out, "%s%s %s\n", prefix, name, list[1])
		} else {
			fmt.Fprintf(out, "%s%s\n", prefix, name)
		}
	}
}
