//go:build integration

package x11

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rbright/dwbremote/internal/transport"
	"github.com/rbright/dwbremote/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestPropertyRoundTripIntegration(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("DISPLAY is not set")
	}

	conn, err := Open("")
	require.NoError(t, err)
	defer conn.Close()

	w, err := conn.CreateWindow(transport.WindowAttrs{
		Class: transport.WMClass{Instance: "dwb-test", Class: "DwbTest"},
		Title: "integration",
		Pid:   uint32(os.Getpid()),
	})
	require.NoError(t, err)
	defer func() { _ = conn.DestroyWindow(w) }()
	require.NoError(t, conn.Watch(w))

	require.NoError(t, conn.WriteList(w, wire.ClientWrite, []string{"get", "uri"}))
	list, ok := conn.ReadList(w, wire.ClientWrite)
	require.True(t, ok)
	require.Equal(t, []string{"get", "uri"}, list)

	require.NoError(t, conn.WriteInt(w, wire.StatusSlot, -1))
	status, ok := conn.ReadInt(w, wire.StatusSlot)
	require.True(t, ok)
	require.Equal(t, int32(-1), status)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := conn.NextEvent(ctx)
	require.NoError(t, err)
	require.Equal(t, w, ev.Window)

	class, ok := conn.Class(w)
	require.True(t, ok)
	require.Equal(t, "DwbTest", class.Class)

	pid, ok := conn.Pid(w)
	require.True(t, ok)
	require.Equal(t, uint32(os.Getpid()), pid)
}
