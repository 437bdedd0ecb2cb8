// Package x11 implements the transport over an X11 display using xgb and
// xgbutil.
package x11

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/wire"
)

const (
	watchMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	hostMask  = watchMask | xproto.EventMaskFocusChange
)

// atomTable is resolved once per connection and never mutated afterwards.
type atomTable struct {
	channels   map[wire.Channel]xproto.Atom
	byAtom     map[xproto.Atom]wire.Channel
	utf8String xproto.Atom
}

func internAtoms(conn *xgb.Conn) (atomTable, error) {
	table := atomTable{
		channels: make(map[wire.Channel]xproto.Atom),
		byAtom:   make(map[xproto.Atom]wire.Channel),
	}

	intern := func(name string) (xproto.Atom, error) {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return 0, fmt.Errorf("intern atom %s: %w", name, err)
		}
		return reply.Atom, nil
	}

	for _, ch := range wire.Channels() {
		atom, err := intern(ch.Atom())
		if err != nil {
			return atomTable{}, err
		}
		table.channels[ch] = atom
		table.byAtom[atom] = ch
	}

	atom, err := intern("UTF8_STRING")
	if err != nil {
		return atomTable{}, err
	}
	table.utf8String = atom
	return table, nil
}

// Conn is a transport connection to an X server.
type Conn struct {
	xu     *xgbutil.XUtil
	atoms  atomTable
	events chan xgb.Event
	done   chan struct{}

	mu    sync.Mutex
	owned map[transport.Window]bool

	closeOnce sync.Once
}

var (
	_ transport.Conn = (*Conn)(nil)
	_ transport.Host = (*Conn)(nil)
)

// Open connects to display, or $DISPLAY when display is empty.
func Open(display string) (*Conn, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("open display %q: %w", display, err)
	}

	atoms, err := internAtoms(xu.Conn())
	if err != nil {
		xu.Conn().Close()
		return nil, err
	}

	c := &Conn{
		xu:     xu,
		atoms:  atoms,
		events: make(chan xgb.Event, 64),
		done:   make(chan struct{}),
		owned:  make(map[transport.Window]bool),
	}
	go c.pump(xu.Conn().WaitForEvent)
	return c, nil
}

// pump forwards events from wait until the connection closes. X errors raised
// by requests against vanished windows are dropped.
func (c *Conn) pump(wait func() (xgb.Event, xgb.Error)) {
	defer close(c.events)
	for {
		ev, err := wait()
		if ev == nil && err == nil {
			return
		}
		if err != nil {
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) Root() transport.Window {
	return transport.Window(c.xu.RootWin())
}

func (c *Conn) Children(w transport.Window) ([]transport.Window, error) {
	reply, err := xproto.QueryTree(c.xu.Conn(), xproto.Window(w)).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree %s: %w", w, err)
	}
	out := make([]transport.Window, 0, len(reply.Children))
	for _, child := range reply.Children {
		out = append(out, transport.Window(child))
	}
	return out, nil
}

func (c *Conn) getProperty(w transport.Window, ch wire.Channel) (*xproto.GetPropertyReply, bool) {
	reply, err := xproto.GetProperty(
		c.xu.Conn(),
		false,
		xproto.Window(w),
		c.atoms.channels[ch],
		xproto.GetPropertyTypeAny,
		0,
		math.MaxUint32/4,
	).Reply()
	if err != nil || reply == nil || reply.Type == xproto.AtomNone {
		return nil, false
	}
	return reply, true
}

func (c *Conn) ReadList(w transport.Window, ch wire.Channel) ([]string, bool) {
	reply, ok := c.getProperty(w, ch)
	if !ok || reply.Format != 8 {
		return nil, false
	}
	list, err := wire.Decode(reply.Value)
	if err != nil {
		return nil, false
	}
	return list, true
}

func (c *Conn) WriteList(w transport.Window, ch wire.Channel, list []string) error {
	data, err := wire.Encode(list)
	if err != nil {
		return err
	}
	err = xproto.ChangePropertyChecked(
		c.xu.Conn(),
		xproto.PropModeReplace,
		xproto.Window(w),
		c.atoms.channels[ch],
		c.atoms.utf8String,
		8,
		uint32(len(data)),
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("write %s on %s: %w", ch, w, err)
	}
	return nil
}

func (c *Conn) ReadInt(w transport.Window, ch wire.Channel) (int32, bool) {
	reply, ok := c.getProperty(w, ch)
	if !ok || reply.Format != 32 || len(reply.Value) < 4 {
		return 0, false
	}
	return int32(xgb.Get32(reply.Value)), true
}

func (c *Conn) WriteInt(w transport.Window, ch wire.Channel, n int32) error {
	buf := make([]byte, 4)
	xgb.Put32(buf, uint32(n))
	err := xproto.ChangePropertyChecked(
		c.xu.Conn(),
		xproto.PropModeReplace,
		xproto.Window(w),
		c.atoms.channels[ch],
		xproto.AtomInteger,
		32,
		1,
		buf,
	).Check()
	if err != nil {
		return fmt.Errorf("write %s on %s: %w", ch, w, err)
	}
	return nil
}

func (c *Conn) Delete(w transport.Window, ch wire.Channel) error {
	err := xproto.DeletePropertyChecked(c.xu.Conn(), xproto.Window(w), c.atoms.channels[ch]).Check()
	if err != nil {
		return fmt.Errorf("delete %s on %s: %w", ch, w, err)
	}
	return nil
}

func (c *Conn) Pid(w transport.Window) (uint32, bool) {
	pid, err := ewmh.WmPidGet(c.xu, xproto.Window(w))
	if err != nil || pid == 0 {
		return 0, false
	}
	return uint32(pid), true
}

func (c *Conn) Class(w transport.Window) (transport.WMClass, bool) {
	class, err := icccm.WmClassGet(c.xu, xproto.Window(w))
	if err != nil || class == nil {
		return transport.WMClass{}, false
	}
	return transport.WMClass{Instance: class.Instance, Class: class.Class}, true
}

func (c *Conn) Name(w transport.Window) (string, bool) {
	if name, err := ewmh.WmNameGet(c.xu, xproto.Window(w)); err == nil && name != "" {
		return name, true
	}
	name, err := icccm.WmNameGet(c.xu, xproto.Window(w))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// Watch selects notifications on w. Windows created by this connection keep
// their focus-change selection.
func (c *Conn) Watch(w transport.Window) error {
	c.mu.Lock()
	owned := c.owned[w]
	c.mu.Unlock()
	if owned {
		return c.selectInput(w, hostMask)
	}
	return c.selectInput(w, watchMask)
}

func (c *Conn) selectInput(w transport.Window, mask uint32) error {
	err := xproto.ChangeWindowAttributesChecked(
		c.xu.Conn(),
		xproto.Window(w),
		xproto.CwEventMask,
		[]uint32{mask},
	).Check()
	if err != nil {
		return fmt.Errorf("select input on %s: %w", w, err)
	}
	return nil
}

func (c *Conn) NextEvent(ctx context.Context) (transport.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return transport.Event{}, ctx.Err()
		case ev, ok := <-c.events:
			if !ok {
				return transport.Event{}, transport.ErrClosed
			}
			if translated, ok := c.translate(ev); ok {
				return translated, nil
			}
		}
	}
}

func (c *Conn) translate(ev xgb.Event) (transport.Event, bool) {
	switch e := ev.(type) {
	case xproto.PropertyNotifyEvent:
		ch, ok := c.atoms.byAtom[e.Atom]
		if !ok {
			return transport.Event{}, false
		}
		kind := transport.EventPropertyNewValue
		if e.State == xproto.PropertyDelete {
			kind = transport.EventPropertyDeleted
		}
		return transport.Event{Kind: kind, Window: transport.Window(e.Window), Channel: ch}, true
	case xproto.DestroyNotifyEvent:
		return transport.Event{Kind: transport.EventDestroyed, Window: transport.Window(e.Window)}, true
	case xproto.FocusInEvent:
		return transport.Event{Kind: transport.EventFocusIn, Window: transport.Window(e.Event)}, true
	default:
		return transport.Event{}, false
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.xu.Conn().Close()
	})
	return nil
}

// CreateWindow creates and maps a top-level window selected for property,
// structure, and focus notifications.
func (c *Conn) CreateWindow(attrs transport.WindowAttrs) (transport.Window, error) {
	conn := c.xu.Conn()
	screen := c.xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, fmt.Errorf("allocate window id: %w", err)
	}

	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.xu.RootWin(),
		0, 0, 800, 600, 0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwEventMask,
		[]uint32{hostMask},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}

	if attrs.Class.Class != "" || attrs.Class.Instance != "" {
		if err := icccm.WmClassSet(c.xu, wid, &icccm.WmClass{Instance: attrs.Class.Instance, Class: attrs.Class.Class}); err != nil {
			return 0, fmt.Errorf("set WM_CLASS: %w", err)
		}
	}
	if attrs.Title != "" {
		if err := icccm.WmNameSet(c.xu, wid, attrs.Title); err != nil {
			return 0, fmt.Errorf("set WM_NAME: %w", err)
		}
		if err := ewmh.WmNameSet(c.xu, wid, attrs.Title); err != nil {
			return 0, fmt.Errorf("set _NET_WM_NAME: %w", err)
		}
	}
	if attrs.Pid != 0 {
		if err := ewmh.WmPidSet(c.xu, wid, uint(attrs.Pid)); err != nil {
			return 0, fmt.Errorf("set _NET_WM_PID: %w", err)
		}
	}

	if err := xproto.MapWindowChecked(conn, wid).Check(); err != nil {
		return 0, fmt.Errorf("map window: %w", err)
	}

	c.mu.Lock()
	c.owned[transport.Window(wid)] = true
	c.mu.Unlock()
	return transport.Window(wid), nil
}

func (c *Conn) DestroyWindow(w transport.Window) error {
	if err := xproto.DestroyWindowChecked(c.xu.Conn(), xproto.Window(w)).Check(); err != nil {
		return fmt.Errorf("destroy window %s: %w", w, err)
	}
	return nil
}
