// Package memory is an in-process display: a window tree with property slots
// and per-connection notification queues. It behaves like a single X server
// shared by any number of connections and backs the protocol tests.
package memory

import (
	"context"
	"sync"

	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/wire"
)

const rootWindow transport.Window = 0x100

type propKind int

const (
	propText propKind = iota + 1
	propInteger
)

type property struct {
	kind propKind
	text []byte
	num  int32
}

type window struct {
	parent   transport.Window
	children []transport.Window
	attrs    transport.WindowAttrs
	props    map[wire.Channel]property
}

// Display is the shared window tree.
type Display struct {
	mu      sync.Mutex
	next    transport.Window
	windows map[transport.Window]*window
	conns   map[*Conn]struct{}
}

// NewDisplay returns a display holding only the root window.
func NewDisplay() *Display {
	return &Display{
		next: rootWindow + 1,
		windows: map[transport.Window]*window{
			rootWindow: {props: map[wire.Channel]property{}},
		},
		conns: map[*Conn]struct{}{},
	}
}

// Root returns the root window id.
func (d *Display) Root() transport.Window {
	return rootWindow
}

// Connect opens a new client connection.
func (d *Display) Connect() *Conn {
	c := &Conn{
		d:       d,
		watched: map[transport.Window]bool{},
		signal:  make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.conns[c] = struct{}{}
	d.mu.Unlock()
	return c
}

// CreateWindow adds a window under parent.
func (d *Display) CreateWindow(parent transport.Window, attrs transport.WindowAttrs) (transport.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.windows[parent]
	if !ok {
		return 0, transport.ErrBadWindow
	}
	id := d.next
	d.next++
	d.windows[id] = &window{parent: parent, attrs: attrs, props: map[wire.Channel]property{}}
	p.children = append(p.children, id)
	return id, nil
}

// Destroy removes w and its subtree, notifying watchers of each window.
func (d *Display) Destroy(w transport.Window) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	win, ok := d.windows[w]
	if !ok || w == rootWindow {
		return transport.ErrBadWindow
	}
	if p, ok := d.windows[win.parent]; ok {
		p.children = removeWindow(p.children, w)
	}

	stack := []transport.Window{w}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node, ok := d.windows[cur]
		if !ok {
			continue
		}
		stack = append(stack, node.children...)
		delete(d.windows, cur)
		d.notifyLocked(transport.Event{Kind: transport.EventDestroyed, Window: cur})
	}
	return nil
}

// Focus delivers a focus-in notification for w.
func (d *Display) Focus(w transport.Window) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.windows[w]; !ok {
		return transport.ErrBadWindow
	}
	d.notifyLocked(transport.Event{Kind: transport.EventFocusIn, Window: w})
	return nil
}

// WriteRaw stores an arbitrary text value, bypassing message framing.
func (d *Display) WriteRaw(w transport.Window, ch wire.Channel, data []byte) error {
	return d.setProperty(w, ch, property{kind: propText, text: append([]byte(nil), data...)})
}

func (d *Display) setProperty(w transport.Window, ch wire.Channel, prop property) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	win, ok := d.windows[w]
	if !ok {
		return transport.ErrBadWindow
	}
	win.props[ch] = prop
	d.notifyLocked(transport.Event{Kind: transport.EventPropertyNewValue, Window: w, Channel: ch})
	return nil
}

func (d *Display) deleteProperty(w transport.Window, ch wire.Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	win, ok := d.windows[w]
	if !ok {
		return transport.ErrBadWindow
	}
	if _, exists := win.props[ch]; !exists {
		return nil
	}
	delete(win.props, ch)
	d.notifyLocked(transport.Event{Kind: transport.EventPropertyDeleted, Window: w, Channel: ch})
	return nil
}

func (d *Display) property(w transport.Window, ch wire.Channel) (property, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	win, ok := d.windows[w]
	if !ok {
		return property{}, false
	}
	prop, ok := win.props[ch]
	return prop, ok
}

func (d *Display) attrs(w transport.Window) (transport.WindowAttrs, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	win, ok := d.windows[w]
	if !ok {
		return transport.WindowAttrs{}, false
	}
	return win.attrs, true
}

func (d *Display) children(w transport.Window) ([]transport.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	win, ok := d.windows[w]
	if !ok {
		return nil, transport.ErrBadWindow
	}
	return append([]transport.Window(nil), win.children...), nil
}

func (d *Display) exists(w transport.Window) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.windows[w]
	return ok
}

func (d *Display) disconnect(c *Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.conns, c)
}

// notifyLocked must be called with d.mu held.
func (d *Display) notifyLocked(ev transport.Event) {
	for c := range d.conns {
		c.push(ev)
	}
}

func removeWindow(list []transport.Window, w transport.Window) []transport.Window {
	out := list[:0]
	for _, cur := range list {
		if cur != w {
			out = append(out, cur)
		}
	}
	return out
}

// Conn is one connection to a Display.
type Conn struct {
	d *Display

	mu      sync.Mutex
	watched map[transport.Window]bool
	queue   []transport.Event
	closed  bool
	signal  chan struct{}
}

var (
	_ transport.Conn = (*Conn)(nil)
	_ transport.Host = (*Conn)(nil)
)

func (c *Conn) push(ev transport.Event) {
	c.mu.Lock()
	if c.closed || !c.watched[ev.Window] {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

func (c *Conn) Root() transport.Window {
	return c.d.Root()
}

func (c *Conn) Children(w transport.Window) ([]transport.Window, error) {
	return c.d.children(w)
}

func (c *Conn) ReadList(w transport.Window, ch wire.Channel) ([]string, bool) {
	prop, ok := c.d.property(w, ch)
	if !ok || prop.kind != propText {
		return nil, false
	}
	list, err := wire.Decode(prop.text)
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
	return c.d.setProperty(w, ch, property{kind: propText, text: data})
}

func (c *Conn) ReadInt(w transport.Window, ch wire.Channel) (int32, bool) {
	prop, ok := c.d.property(w, ch)
	if !ok || prop.kind != propInteger {
		return 0, false
	}
	return prop.num, true
}

func (c *Conn) WriteInt(w transport.Window, ch wire.Channel, n int32) error {
	return c.d.setProperty(w, ch, property{kind: propInteger, num: n})
}

func (c *Conn) Delete(w transport.Window, ch wire.Channel) error {
	return c.d.deleteProperty(w, ch)
}

func (c *Conn) Pid(w transport.Window) (uint32, bool) {
	attrs, ok := c.d.attrs(w)
	if !ok || attrs.Pid == 0 {
		return 0, false
	}
	return attrs.Pid, true
}

func (c *Conn) Class(w transport.Window) (transport.WMClass, bool) {
	attrs, ok := c.d.attrs(w)
	if !ok || (attrs.Class.Class == "" && attrs.Class.Instance == "") {
		return transport.WMClass{}, false
	}
	return attrs.Class, true
}

func (c *Conn) Name(w transport.Window) (string, bool) {
	attrs, ok := c.d.attrs(w)
	if !ok || attrs.Title == "" {
		return "", false
	}
	return attrs.Title, true
}

func (c *Conn) Watch(w transport.Window) error {
	if !c.d.exists(w) {
		return transport.ErrBadWindow
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	c.watched[w] = true
	return nil
}

func (c *Conn) NextEvent(ctx context.Context) (transport.Event, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return transport.Event{}, transport.ErrClosed
		}
		if len(c.queue) > 0 {
			ev := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return ev, nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return transport.Event{}, ctx.Err()
		case <-c.signal:
		}
	}
}

// Pending reports the number of queued, undelivered events.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.queue = nil
	c.mu.Unlock()

	c.d.disconnect(c)
	select {
	case c.signal <- struct{}{}:
	default:
	}
	return nil
}

// CreateWindow creates a top-level window under the root.
func (c *Conn) CreateWindow(attrs transport.WindowAttrs) (transport.Window, error) {
	return c.d.CreateWindow(rootWindow, attrs)
}

func (c *Conn) DestroyWindow(w transport.Window) error {
	return c.d.Destroy(w)
}
