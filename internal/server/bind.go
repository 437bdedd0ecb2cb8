package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rbright/dwbremote/internal/wire"
)

const noneValue = "none"

// ParseBinding splits "<shortcut>:<command>". Either side may be "none".
func ParseBinding(arg string) (Binding, bool) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 {
		return Binding{}, false
	}
	b := Binding{Name: arg, Shortcut: parts[0], Command: parts[1]}
	if b.Shortcut == noneValue {
		b.Shortcut = ""
	}
	if b.Command == noneValue {
		b.Command = ""
	}
	return b, true
}

// bind registers every well-formed binding argument. Malformed entries are
// skipped.
func (s *Server) bind(_ context.Context, args []string) (string, bool, error) {
	for _, arg := range args {
		binding, ok := ParseBinding(arg)
		if !ok {
			s.logger.Debug("skipping malformed binding", "binding", arg)
			continue
		}
		if err := s.browser.BindKey(binding, func() { s.activateBinding(binding) }); err != nil {
			return "", false, &CommandError{Code: 1, Err: fmt.Errorf("bind %q: %w", arg, err)}
		}
	}
	return "", false, nil
}

// activateBinding announces a fired binding as [name, "<tab> <uri>"] with a
// 0-based tab index.
func (s *Server) activateBinding(b Binding) {
	idx := s.browser.CurrentTab()
	uri := ""
	if tabs := s.browser.Tabs(); idx >= 0 && idx < len(tabs) {
		uri = tabs[idx].URI
	}
	payload := strconv.Itoa(idx) + " " + uri
	if err := s.conn.WriteList(s.window, wire.Bind, []string{b.Name, payload}); err != nil {
		s.logger.Warn("write bind failed", "binding", b.Name, "error", err.Error())
	}
}
