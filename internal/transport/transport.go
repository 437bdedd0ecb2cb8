// Package transport abstracts the windowing-system connection the protocol
// runs over: the window tree, property slots, and change notifications.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rbright/dwbremote/internal/wire"
)

var (
	ErrClosed    = errors.New("display connection closed")
	ErrBadWindow = errors.New("no such window")
)

// Window is an opaque window handle in the display's namespace.
type Window uint32

func (w Window) String() string {
	return fmt.Sprintf("0x%x", uint32(w))
}

// ParseWindow accepts decimal ids and 0x-prefixed hexadecimal ids.
func ParseWindow(raw string) (Window, error) {
	raw = strings.TrimSpace(raw)
	base := 10
	digits := raw
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		base = 16
		digits = raw[2:]
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("parse window id %q: %w", raw, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("parse window id %q: window id must be non-zero", raw)
	}
	return Window(n), nil
}

// EventKind classifies a notification.
type EventKind int

const (
	EventPropertyNewValue EventKind = iota + 1
	EventPropertyDeleted
	EventDestroyed
	EventFocusIn
)

func (k EventKind) String() string {
	switch k {
	case EventPropertyNewValue:
		return "property-new-value"
	case EventPropertyDeleted:
		return "property-deleted"
	case EventDestroyed:
		return "destroyed"
	case EventFocusIn:
		return "focus-in"
	default:
		return "unknown"
	}
}

// Event is one notification delivered to a watching connection. Channel is
// only set for property events on protocol channels.
type Event struct {
	Kind    EventKind
	Window  Window
	Channel wire.Channel
}

// WMClass is the ICCCM WM_CLASS pair.
type WMClass struct {
	Instance string
	Class    string
}

// Conn is one client connection to the display.
type Conn interface {
	Root() Window
	Children(w Window) ([]Window, error)

	ReadList(w Window, ch wire.Channel) ([]string, bool)
	WriteList(w Window, ch wire.Channel, list []string) error
	ReadInt(w Window, ch wire.Channel) (int32, bool)
	WriteInt(w Window, ch wire.Channel, n int32) error
	Delete(w Window, ch wire.Channel) error

	Pid(w Window) (uint32, bool)
	Class(w Window) (WMClass, bool)
	Name(w Window) (string, bool)

	// Watch subscribes this connection to property and structure
	// notifications for w.
	Watch(w Window) error
	// NextEvent blocks until the next notification or ctx is done.
	NextEvent(ctx context.Context) (Event, error)
	Close() error
}

// WindowAttrs describes a top-level window created by a host process.
type WindowAttrs struct {
	Class WMClass
	Title string
	Pid   uint32
}

// Host is implemented by connections able to create the top-level window a
// server instance lives on.
type Host interface {
	CreateWindow(attrs WindowAttrs) (Window, error)
	DestroyWindow(w Window) error
}
