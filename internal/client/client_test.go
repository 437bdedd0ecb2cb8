package client

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rbright/dwbremote/internal/server"
	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/transport/memory"
	"github.com/rbright/dwbremote/internal/wire"
	"github.com/stretchr/testify/require"
)

type stubBrowser struct {
	uri  string
	code int
}

func (b stubBrowser) Execute(context.Context, string) int { return b.code }

func (b stubBrowser) Prompt(context.Context, string, bool) (string, bool) { return "", false }

func (b stubBrowser) Confirm(context.Context, string) bool { return false }

func (b stubBrowser) Tabs() []server.Tab { return []server.Tab{{URI: b.uri}} }

func (b stubBrowser) CurrentTab() int { return 0 }

func (b stubBrowser) History(context.Context) ([]string, error) { return nil, nil }

func (b stubBrowser) Profile() string { return "default" }

func (b stubBrowser) Session() string { return "" }

func (b stubBrowser) Setting(string) (server.Setting, bool) { return server.Setting{}, false }

func (b stubBrowser) BindKey(server.Binding, func()) error { return nil }

// syncBuffer is written by the client goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startEndpoint(t *testing.T, d *memory.Display, browser server.Browser, attrs transport.WindowAttrs) (*server.Server, transport.Window) {
	t.Helper()
	conn := d.Connect()
	w, err := conn.CreateWindow(attrs)
	require.NoError(t, err)

	srv := server.New(conn, w, browser, nil)
	require.NoError(t, srv.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv, w
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSendOncePrintsReplyAndReturnsStatus(t *testing.T) {
	d := memory.NewDisplay()
	_, w := startEndpoint(t, d, stubBrowser{uri: "http://example.com"}, transport.WindowAttrs{})

	var out bytes.Buffer
	code, err := SendOnce(testContext(t), d.Connect(), w, []string{"get", "uri"}, &out)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "http://example.com\n", out.String())
}

func TestSendOnceUnknownCommand(t *testing.T) {
	d := memory.NewDisplay()
	_, w := startEndpoint(t, d, stubBrowser{}, transport.WindowAttrs{})

	var out bytes.Buffer
	code, err := SendOnce(testContext(t), d.Connect(), w, []string{"frobnicate"}, &out)
	require.NoError(t, err)
	require.Equal(t, int(wire.StatusUsage), code)
	require.Empty(t, out.String())
}

// responder reacts to the first command written to w.
func responder(t *testing.T, d *memory.Display, w transport.Window, react func()) {
	t.Helper()
	conn := d.Connect()
	require.NoError(t, conn.Watch(w))
	go func() {
		for {
			ev, err := conn.NextEvent(context.Background())
			if err != nil {
				return
			}
			if ev.Channel == wire.ClientWrite && ev.Kind == transport.EventPropertyNewValue {
				react()
				_ = conn.Close()
				return
			}
		}
	}()
}

func TestSendOnceTargetDestroyed(t *testing.T) {
	d := memory.NewDisplay()
	w, err := d.CreateWindow(d.Root(), transport.WindowAttrs{})
	require.NoError(t, err)
	responder(t, d, w, func() { _ = d.Destroy(w) })

	code, err := SendOnce(testContext(t), d.Connect(), w, []string{"get", "uri"}, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrTargetDestroyed)
	require.Equal(t, 0, code)
}

func TestSendOnceStatusMissing(t *testing.T) {
	d := memory.NewDisplay()
	w, err := d.CreateWindow(d.Root(), transport.WindowAttrs{})
	require.NoError(t, err)
	responder(t, d, w, func() { _ = d.WriteRaw(w, wire.StatusSlot, []byte("garbage")) })

	_, err = SendOnce(testContext(t), d.Connect(), w, []string{"get", "uri"}, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrStatusMissing)
}

// stuckReply refuses to delete the reply slot.
type stuckReply struct {
	transport.Conn
}

func (c stuckReply) Delete(w transport.Window, ch wire.Channel) error {
	if ch == wire.ClientRead {
		return transport.ErrBadWindow
	}
	return c.Conn.Delete(w, ch)
}

func TestSendOnceReportsUnconsumedReply(t *testing.T) {
	d := memory.NewDisplay()
	w, err := d.CreateWindow(d.Root(), transport.WindowAttrs{})
	require.NoError(t, err)
	writer := d.Connect()
	responder(t, d, w, func() {
		_ = writer.WriteList(w, wire.ServerWrite, []string{"http://example.com"})
		_ = writer.WriteInt(w, wire.StatusSlot, 0)
	})

	var out bytes.Buffer
	_, err = SendOnce(testContext(t), stuckReply{Conn: d.Connect()}, w, []string{"get", "uri"}, &out)
	require.ErrorIs(t, err, transport.ErrBadWindow)
	require.Contains(t, err.Error(), "consume reply")
	require.Equal(t, "http://example.com\n", out.String())
}

func TestSendOnceHonoursDeadline(t *testing.T) {
	d := memory.NewDisplay()
	w, err := d.CreateWindow(d.Root(), transport.WindowAttrs{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = SendOnce(ctx, d.Connect(), w, []string{"get", "uri"}, &bytes.Buffer{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendOnceSubscriptionEndsWithDestroy(t *testing.T) {
	d := memory.NewDisplay()
	srv, w := startEndpoint(t, d, stubBrowser{uri: "http://example.com"}, transport.WindowAttrs{})

	ctx := testContext(t)
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		_, err := SendOnce(ctx, d.Connect(), w, []string{"hook", "navigation"}, out)
		done <- err
	}()

	require.Eventually(t, func() bool { return srv.Hooks().Has(wire.HookNavigation) }, time.Second, 5*time.Millisecond)
	require.True(t, srv.EmitHook(wire.HookNavigation, "0", "http://example.com"))
	require.Eventually(t, func() bool { return out.String() == "navigation 0 http://example.com\n" }, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Destroy(w))
	require.ErrorIs(t, <-done, ErrTargetDestroyed)
}

func TestRemoteSumsStatusesSequentially(t *testing.T) {
	d := memory.NewDisplay()
	_, a := startEndpoint(t, d, stubBrowser{uri: "http://a.example", code: 0}, transport.WindowAttrs{})
	_, b := startEndpoint(t, d, stubBrowser{uri: "http://b.example", code: 2}, transport.WindowAttrs{})
	_, c := startEndpoint(t, d, stubBrowser{uri: "http://c.example", code: 3}, transport.WindowAttrs{})

	var out bytes.Buffer
	r := &Remote{Conn: d.Connect(), Out: &out}
	code, err := r.Run(testContext(t), []transport.Window{a, b, c}, []string{"execute", "reload"})
	require.NoError(t, err)
	require.Equal(t, 5, code)

	r.ShowID = true
	code, err = r.Run(testContext(t), []transport.Window{a, b}, []string{"get", "uri"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, a.String()+" http://a.example\n"+b.String()+" http://b.example\n", out.String())
}

func TestRemoteCountsDestroyedTarget(t *testing.T) {
	d := memory.NewDisplay()
	_, a := startEndpoint(t, d, stubBrowser{code: 4}, transport.WindowAttrs{})
	gone, err := d.CreateWindow(d.Root(), transport.WindowAttrs{})
	require.NoError(t, err)
	responder(t, d, gone, func() { _ = d.Destroy(gone) })

	r := &Remote{Conn: d.Connect(), Out: &bytes.Buffer{}}
	code, err := r.Run(testContext(t), []transport.Window{gone, a}, []string{"execute", "reload"})
	require.NoError(t, err)
	require.Equal(t, 5, code)
}

func TestRemoteBroadcastStopsWhenOneTargetLeft(t *testing.T) {
	d := memory.NewDisplay()
	srvA, a := startEndpoint(t, d, stubBrowser{}, transport.WindowAttrs{})
	srvB, b := startEndpoint(t, d, stubBrowser{}, transport.WindowAttrs{})
	srvC, c := startEndpoint(t, d, stubBrowser{}, transport.WindowAttrs{})

	conn := d.Connect()
	targets, err := Resolve(conn, conn.Root(), Selector{All: true})
	require.NoError(t, err)
	require.Equal(t, []transport.Window{a, b, c}, targets)

	ctx := testContext(t)
	out := &syncBuffer{}
	r := &Remote{Conn: conn, Out: out, ShowID: true}
	done := make(chan int, 1)
	go func() {
		code, runErr := r.Run(ctx, targets, []string{"hook", "navigation", "close_tab"})
		if runErr != nil {
			code = -100
		}
		done <- code
	}()

	for _, srv := range []*server.Server{srvA, srvB, srvC} {
		require.Eventually(t, func() bool { return srv.Hooks().Has(wire.HookCloseTab) }, time.Second, 5*time.Millisecond)
	}

	require.True(t, srvB.EmitHook(wire.HookNavigation, "0", "http://b.example"))
	require.Eventually(t, func() bool {
		return out.String() == b.String()+" navigation 0 http://b.example\n"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Destroy(a))
	require.True(t, srvC.EmitHook(wire.HookCloseTab))
	require.Eventually(t, func() bool {
		return strings.HasSuffix(out.String(), c.String()+" close_tab\n")
	}, time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("broadcast ended with two live targets")
	default:
	}

	require.NoError(t, d.Destroy(b))
	select {
	case code := <-done:
		require.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast did not end with one live target")
	}
}

func TestResolve(t *testing.T) {
	d := memory.NewDisplay()
	conn := d.Connect()
	endpoint := func(attrs transport.WindowAttrs, focus int32) transport.Window {
		w, err := d.CreateWindow(d.Root(), attrs)
		require.NoError(t, err)
		require.NoError(t, conn.WriteInt(w, wire.StatusSlot, 0))
		if focus > 0 {
			require.NoError(t, conn.WriteInt(w, wire.FocusID, focus))
		}
		return w
	}
	a := endpoint(transport.WindowAttrs{Pid: 100, Class: transport.WMClass{Instance: "dwb", Class: "Dwb"}}, 2)
	b := endpoint(transport.WindowAttrs{Pid: 200, Class: transport.WMClass{Instance: "work", Class: "Dwb"}}, 7)

	tests := []struct {
		name    string
		sel     Selector
		want    []transport.Window
		wantErr error
	}{
		{name: "pid", sel: Selector{Pids: []uint32{200}}, want: []transport.Window{b}},
		{name: "union without duplicates", sel: Selector{Pids: []uint32{200}, Classes: []string{"Dwb"}}, want: []transport.Window{b, a}},
		{name: "name", sel: Selector{Names: []string{"dwb"}}, want: []transport.Window{a}},
		{name: "id", sel: Selector{IDs: []transport.Window{a}}, want: []transport.Window{a}},
		{name: "explicit beats env", sel: Selector{Pids: []uint32{100}, EnvID: "0x1"}, want: []transport.Window{a}},
		{name: "no such pid", sel: Selector{Pids: []uint32{1234}}, wantErr: ErrNoTarget},
		{name: "env", sel: Selector{EnvID: "0x3c00001"}, want: []transport.Window{0x3c00001}},
		{name: "focus fallback", sel: Selector{}, want: []transport.Window{b}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(conn, conn.Root(), tc.sel)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := Resolve(conn, conn.Root(), Selector{EnvID: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "default window")
}

func TestResolveWithoutFocusedEndpoint(t *testing.T) {
	d := memory.NewDisplay()
	_, err := Resolve(d.Connect(), d.Root(), Selector{})
	require.ErrorIs(t, err, ErrNoTarget)
}

func TestPrintMatches(t *testing.T) {
	args := []string{"hook", "navigation", "new_tab"}
	tests := []struct {
		name string
		list []string
		want string
	}{
		{name: "payload", list: []string{"navigation", "1 http://example.com"}, want: "navigation 1 http://example.com\n"},
		{name: "no payload", list: []string{"new_tab"}, want: "new_tab\n"},
		{name: "empty payload", list: []string{"new_tab", ""}, want: "new_tab\n"},
		{name: "hook echo", list: []string{"hook", "add close_tab"}, want: "hook add close_tab\n"},
		{name: "not requested", list: []string{"close_tab"}, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			printMatches(&out, "", tc.list, args)
			require.Equal(t, tc.want, out.String())
		})
	}
}

func TestRemoteRejectsEmptyInput(t *testing.T) {
	d := memory.NewDisplay()
	r := &Remote{Conn: d.Connect(), Out: &bytes.Buffer{}}

	_, err := r.Run(context.Background(), nil, []string{"get", "uri"})
	require.ErrorIs(t, err, ErrNoTarget)

	_, err = r.Run(context.Background(), []transport.Window{1}, nil)
	require.ErrorIs(t, err, wire.ErrEmptyMessage)
}
