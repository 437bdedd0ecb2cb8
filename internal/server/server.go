// Package server is the instance side of the protocol: it serves commands
// written to a window's command slot, broadcasts hooks and tracks focus.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rbright/dwbremote/internal/discovery"
	"github.com/rbright/dwbremote/internal/fsm"
	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/wire"
)

// ErrWindowDestroyed is returned by Serve when the served window goes away.
var ErrWindowDestroyed = errors.New("served window destroyed")

// Server dispatches commands for one window.
type Server struct {
	conn    transport.Conn
	window  transport.Window
	browser Browser
	logger  *slog.Logger

	mu      sync.Mutex
	state   fsm.State
	hooks   wire.HookMask
	focusID int32
}

func New(conn transport.Conn, window transport.Window, browser Browser, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Server{
		conn:    conn,
		window:  window,
		browser: browser,
		logger:  logger,
		state:   fsm.StateIdle,
	}
}

// Window returns the served window.
func (s *Server) Window() transport.Window {
	return s.window
}

// Start selects notifications on the window and marks it as an endpoint.
func (s *Server) Start() error {
	if err := s.conn.Watch(s.window); err != nil {
		return fmt.Errorf("watch %s: %w", s.window, err)
	}
	if err := s.conn.WriteInt(s.window, wire.StatusSlot, int32(wire.StatusOK)); err != nil {
		return fmt.Errorf("write initial status: %w", err)
	}
	s.logger.Info("server started", "window", s.window.String())
	return nil
}

// Serve handles events until ctx is cancelled, the connection closes, or the
// window is destroyed.
func (s *Server) Serve(ctx context.Context) error {
	defer s.transition(fsm.EventClose)

	for {
		ev, err := s.conn.NextEvent(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for event: %w", err)
		}
		if ev.Window != s.window {
			continue
		}

		switch ev.Kind {
		case transport.EventPropertyNewValue:
			if ev.Channel == wire.ClientWrite {
				s.HandleCommand(ctx)
			}
		case transport.EventFocusIn:
			if _, err := s.FocusIn(); err != nil {
				s.logger.Warn("focus tracking failed", "error", err.Error())
			}
		case transport.EventDestroyed:
			return ErrWindowDestroyed
		}
	}
}

// HandleCommand consumes the pending command, if any, and publishes its
// reply and status. It reports false when the slot held nothing readable.
func (s *Server) HandleCommand(ctx context.Context) (Result, bool) {
	list, ok := s.conn.ReadList(s.window, wire.ClientWrite)
	if !ok {
		return Result{}, false
	}
	if err := s.conn.Delete(s.window, wire.ClientWrite); err != nil {
		s.logger.Warn("delete command failed", "error", err.Error())
	}

	if err := s.transition(fsm.EventCommand); err != nil {
		s.logger.Error("dispatch rejected", "error", err.Error())
		return Result{}, false
	}
	defer s.transition(fsm.EventReplied)

	res := s.Dispatch(ctx, list)
	if res.HasReply {
		if err := s.conn.WriteList(s.window, wire.ServerWrite, []string{res.Reply}); err != nil {
			s.logger.Warn("write reply failed", "command", list[0], "error", err.Error())
		}
	}
	if err := s.conn.WriteInt(s.window, wire.StatusSlot, int32(res.Status)); err != nil {
		s.logger.Warn("write status failed", "command", list[0], "error", err.Error())
	}

	fields := []any{"command", list[0], "args", len(list) - 1, "status", int32(res.Status)}
	if res.Err != nil {
		fields = append(fields, "error", res.Err.Error())
	}
	s.logger.Info("command dispatched", fields...)
	return res, true
}

// FocusIn bumps this window's focus counter past every other endpoint's.
func (s *Server) FocusIn() (int32, error) {
	_, highest, _ := discovery.ArbitrateFocus(s.conn, s.conn.Root())

	s.mu.Lock()
	defer s.mu.Unlock()
	if highest < s.focusID {
		return s.focusID, nil
	}
	next := highest + 1
	if err := s.conn.WriteInt(s.window, wire.FocusID, next); err != nil {
		return s.focusID, fmt.Errorf("write focus id: %w", err)
	}
	s.focusID = next
	return next, nil
}

// State returns the dispatcher state.
func (s *Server) State() fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) transition(event fsm.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fsm.Transition(s.state, event)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}
