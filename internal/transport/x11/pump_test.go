package x11

import (
	"testing"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/stretchr/testify/require"
)

type stubEvent struct{}

func (stubEvent) Bytes() []byte  { return nil }
func (stubEvent) String() string { return "stub" }

func TestPumpStopsAfterCloseWhenNobodyReads(t *testing.T) {
	c := &Conn{events: make(chan xgb.Event, 1), done: make(chan struct{})}
	flood := func() (xgb.Event, xgb.Error) { return stubEvent{}, nil }

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		c.pump(flood)
	}()

	require.Eventually(t, func() bool { return len(c.events) == cap(c.events) }, time.Second, time.Millisecond)
	close(c.done)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("pump still blocked after close")
	}
	<-c.events
	_, open := <-c.events
	require.False(t, open)
}

func TestPumpEndsWhenConnectionEnds(t *testing.T) {
	c := &Conn{events: make(chan xgb.Event, 4), done: make(chan struct{})}
	calls := 0
	wait := func() (xgb.Event, xgb.Error) {
		calls++
		if calls > 2 {
			return nil, nil
		}
		return stubEvent{}, nil
	}

	c.pump(wait)
	require.Len(t, c.events, 2)
}
