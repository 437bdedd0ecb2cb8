package server

import (
	"context"
	"strings"

	"github.com/rbright/dwbremote/internal/wire"
)

func (s *Server) addHooks(_ context.Context, args []string) (string, bool, error) {
	s.changeHooks("add", args, func(mask wire.HookMask) wire.HookMask {
		return mask | wire.ParseHooks(args)
	})
	return "", false, nil
}

func (s *Server) clearHooks(_ context.Context, args []string) (string, bool, error) {
	s.changeHooks("clear", args, func(mask wire.HookMask) wire.HookMask {
		return mask &^ wire.ParseHooks(args)
	})
	return "", false, nil
}

// changeHooks applies update and, when the hook category was subscribed
// before the change, announces it as "<action> <names...>".
func (s *Server) changeHooks(action string, names []string, update func(wire.HookMask) wire.HookMask) {
	s.mu.Lock()
	before := s.hooks
	s.hooks = update(before)
	after := s.hooks
	s.mu.Unlock()

	s.logger.Debug("hooks changed", "action", action, "hooks", after.Names())

	if before.Has(wire.HookHook) {
		payload := strings.Join(append([]string{action}, names...), " ")
		s.writeHook([]string{wire.HookHook.String(), payload})
	}
}

// Hooks returns the current subscription mask.
func (s *Server) Hooks() wire.HookMask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hooks
}

// EmitHook broadcasts category with an optional payload when it is
// subscribed. It reports whether anything was written.
func (s *Server) EmitHook(category wire.HookCategory, payload ...string) bool {
	if !s.Hooks().Has(category) {
		return false
	}
	list := []string{category.String()}
	if len(payload) > 0 {
		list = append(list, strings.Join(payload, " "))
	}
	return s.writeHook(list)
}

func (s *Server) writeHook(list []string) bool {
	if err := s.conn.WriteList(s.window, wire.Hook, list); err != nil {
		s.logger.Warn("write hook failed", "hook", list[0], "error", err.Error())
		return false
	}
	return true
}
