package client

import (
	"fmt"

	"github.com/rbright/dwbremote/internal/discovery"
	"github.com/rbright/dwbremote/internal/transport"
)

// Selector describes how targets were requested on the command line.
type Selector struct {
	IDs     []transport.Window
	Pids    []uint32
	Classes []string
	Names   []string
	All     bool
	// EnvID is the raw default window id, usually from $DWB_WINID.
	EnvID string
}

// Explicit reports whether any selection flag was given.
func (s Selector) Explicit() bool {
	return s.All || len(s.IDs) > 0 || len(s.Pids) > 0 || len(s.Classes) > 0 || len(s.Names) > 0
}

// Filters expands the selector into discovery filters in flag order.
func (s Selector) Filters() []discovery.Filter {
	if s.All {
		return []discovery.Filter{discovery.Any()}
	}
	var filters []discovery.Filter
	for _, id := range s.IDs {
		filters = append(filters, discovery.ByID(id))
	}
	for _, pid := range s.Pids {
		filters = append(filters, discovery.ByPid(pid))
	}
	for _, class := range s.Classes {
		filters = append(filters, discovery.ByClass(class))
	}
	for _, name := range s.Names {
		filters = append(filters, discovery.ByName(name))
	}
	return filters
}

// Resolve picks targets: explicit selectors through discovery, then the
// environment default, then the most recently focused endpoint.
func Resolve(tree discovery.Tree, root transport.Window, sel Selector) ([]transport.Window, error) {
	if sel.Explicit() {
		targets := discovery.Resolve(tree, root, sel.Filters())
		if len(targets) == 0 {
			return nil, ErrNoTarget
		}
		return targets, nil
	}

	if sel.EnvID != "" {
		w, err := transport.ParseWindow(sel.EnvID)
		if err != nil {
			return nil, fmt.Errorf("default window: %w", err)
		}
		return []transport.Window{w}, nil
	}

	if w, _, ok := discovery.ArbitrateFocus(tree, root); ok {
		return []transport.Window{w}, nil
	}
	return nil, ErrNoTarget
}
