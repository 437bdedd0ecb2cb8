package discovery

import (
	"fmt"

	"github.com/rbright/dwbremote/internal/transport"
)

// FilterKind tags the closed set of window predicates.
type FilterKind int

const (
	FilterAny FilterKind = iota
	FilterID
	FilterPid
	FilterClass
	FilterName
)

// Filter selects endpoints during discovery.
type Filter struct {
	Kind FilterKind
	ID   transport.Window
	Pid  uint32
	Text string
}

// Any matches every endpoint.
func Any() Filter { return Filter{Kind: FilterAny} }

// ByID matches exactly one window.
func ByID(w transport.Window) Filter { return Filter{Kind: FilterID, ID: w} }

// ByPid matches windows advertising pid in _NET_WM_PID.
func ByPid(pid uint32) Filter { return Filter{Kind: FilterPid, Pid: pid} }

// ByClass matches the class half of WM_CLASS.
func ByClass(class string) Filter { return Filter{Kind: FilterClass, Text: class} }

// ByName matches the WM_CLASS instance or the window title.
func ByName(name string) Filter { return Filter{Kind: FilterName, Text: name} }

// Match reports whether w satisfies the filter. ByName accepts either the
// WM_CLASS instance or the window title.
func (f Filter) Match(tree Tree, w transport.Window) bool {
	switch f.Kind {
	case FilterAny:
		return true
	case FilterID:
		return w == f.ID
	case FilterPid:
		pid, ok := tree.Pid(w)
		return ok && pid == f.Pid
	case FilterClass:
		class, ok := tree.Class(w)
		return ok && class.Class == f.Text
	case FilterName:
		if class, ok := tree.Class(w); ok && class.Instance == f.Text {
			return true
		}
		name, ok := tree.Name(w)
		return ok && name == f.Text
	default:
		return false
	}
}

func (f Filter) String() string {
	switch f.Kind {
	case FilterAny:
		return "any"
	case FilterID:
		return "id=" + f.ID.String()
	case FilterPid:
		return fmt.Sprintf("pid=%d", f.Pid)
	case FilterClass:
		return "class=" + f.Text
	case FilterName:
		return "name=" + f.Text
	default:
		return "unknown"
	}
}
