// Package discovery enumerates protocol endpoints in the window tree and
// elects the most recently focused one.
package discovery

import (
	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/wire"
)

// Tree is the read-only view of the display the walks need.
type Tree interface {
	Children(w transport.Window) ([]transport.Window, error)
	ReadInt(w transport.Window, ch wire.Channel) (int32, bool)
	Pid(w transport.Window) (uint32, bool)
	Class(w transport.Window) (transport.WMClass, bool)
	Name(w transport.Window) (string, bool)
}

// IsEndpoint reports whether w carries a status slot.
func IsEndpoint(tree Tree, w transport.Window) bool {
	_, ok := tree.ReadInt(w, wire.StatusSlot)
	return ok
}

// Discover walks the descendants of root depth-first and returns every
// endpoint matching filter, without duplicates and in visit order. With
// stopOnFirst the walk ends at the first match. Subtrees that vanish during
// the walk are skipped.
func Discover(tree Tree, root transport.Window, filter Filter, stopOnFirst bool) []transport.Window {
	var found []transport.Window
	seen := make(map[transport.Window]bool)

	stack := pushReversed(nil, childrenOf(tree, root))
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if IsEndpoint(tree, w) && filter.Match(tree, w) && !seen[w] {
			seen[w] = true
			found = append(found, w)
			if stopOnFirst {
				return found
			}
		}
		stack = pushReversed(stack, childrenOf(tree, w))
	}
	return found
}

// Resolve runs one walk per filter and merges the results, keeping the first
// occurrence of each window.
func Resolve(tree Tree, root transport.Window, filters []Filter) []transport.Window {
	var out []transport.Window
	seen := make(map[transport.Window]bool)
	for _, filter := range filters {
		for _, w := range Discover(tree, root, filter, false) {
			if seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// ArbitrateFocus returns the endpoint holding the greatest focus counter.
// Endpoints carrying a counter are not descended into; every other window is.
// The first window seen wins ties.
func ArbitrateFocus(tree Tree, root transport.Window) (transport.Window, int32, bool) {
	var (
		best    transport.Window
		bestID  int32
		hasBest bool
	)

	stack := pushReversed(nil, childrenOf(tree, root))
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if IsEndpoint(tree, w) {
			if id, ok := tree.ReadInt(w, wire.FocusID); ok {
				if !hasBest || id > bestID {
					best, bestID, hasBest = w, id, true
				}
				continue
			}
		}
		stack = pushReversed(stack, childrenOf(tree, w))
	}
	return best, bestID, hasBest
}

func childrenOf(tree Tree, w transport.Window) []transport.Window {
	children, err := tree.Children(w)
	if err != nil {
		return nil
	}
	return children
}

// pushReversed appends children so the first child is popped first.
func pushReversed(stack, children []transport.Window) []transport.Window {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, children[i])
	}
	return stack
}
