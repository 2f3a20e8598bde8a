package flood

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/baderanaas/chakra/pkg/event"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestPubSubRouterSubscribe(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	r, err := NewPubSubRouter(context.Background(), newTestHost(t), event.NewBus(1), Options{}, log)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	require.True(t, r.Subscribe("chat"))
	require.False(t, r.Subscribe("chat"))
	require.False(t, r.Subscribe(""))
}

func TestPubSubRouterFlood(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h1, h2 := newTestHost(t), newTestHost(t)
	bus1, bus2 := event.NewBus(16), event.NewBus(16)
	r1, err := NewPubSubRouter(ctx, h1, bus1, Options{}, log)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := NewPubSubRouter(ctx, h2, bus2, Options{}, log)
	require.NoError(t, err)
	defer r2.Close()

	require.True(t, r1.Subscribe("chat"))
	require.True(t, r2.Subscribe("chat"))
	connect(t, h1, h2)

	// The floodsub hello surfaces as a subscription on both sides.
	sub := nextEvent[event.Subscribed](t, bus1)
	require.Equal(t, h2.ID(), sub.Peer)
	require.Equal(t, "chat", sub.Topic)
	r1.AddPeer("chat", sub.Peer)

	// The remote needs to have us in its topic table as well.
	nextEvent[event.Subscribed](t, bus2)
	time.Sleep(200 * time.Millisecond)

	r1.Publish("chat", []byte("hi"))
	msg := nextEvent[event.MessageReceived](t, bus2)
	require.Equal(t, h1.ID(), msg.Source)
	require.Equal(t, []byte("hi"), msg.Data)
}

func TestPubSubRouterPublishWithEmptyView(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h1, h2 := newTestHost(t), newTestHost(t)
	bus2 := event.NewBus(16)
	r1, err := NewPubSubRouter(ctx, h1, event.NewBus(16), Options{}, log)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := NewPubSubRouter(ctx, h2, bus2, Options{}, log)
	require.NoError(t, err)
	defer r2.Close()

	require.True(t, r1.Subscribe("chat"))
	require.True(t, r2.Subscribe("chat"))
	connect(t, h1, h2)
	nextEvent[event.Subscribed](t, bus2)

	// Nobody in the local view, so nothing leaves the node.
	r1.Publish("chat", []byte("hi"))
	select {
	case e := <-bus2.Events():
		_, isMsg := e.(event.MessageReceived)
		require.False(t, isMsg, "message should not have been published")
	case <-time.After(500 * time.Millisecond):
	}
}
