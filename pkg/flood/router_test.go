package flood

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/baderanaas/chakra/pkg/event"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	coretest "github.com/libp2p/go-libp2p/core/test"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type sent struct {
	to    peer.ID
	frame Frame
}

// newTestRouter returns a router whose sends are captured instead of dialled.
func newTestRouter(t *testing.T, bus *event.Bus) (*Router, chan sent) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	r := newRouter(context.Background(), bus, Options{}, log)
	out := make(chan sent, 16)
	r.send = func(_ context.Context, to peer.ID, f Frame) error {
		out <- sent{to: to, frame: f}
		return nil
	}
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	return r, out
}

func requireNoSend(t *testing.T, out chan sent) {
	t.Helper()
	select {
	case s := <-out:
		t.Fatalf("unexpected send of %s frame to %s", s.frame.Type, s.to)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRouterSubscribe(t *testing.T) {
	r, _ := newTestRouter(t, event.NewBus(1))

	require.True(t, r.Subscribe("chat"))
	require.False(t, r.Subscribe("chat"), "second subscription must conflict")
	require.False(t, r.Subscribe(""))
	require.True(t, r.Subscribed("chat"))
}

func TestRouterPublishWithEmptyView(t *testing.T) {
	r, out := newTestRouter(t, event.NewBus(1))
	require.True(t, r.Subscribe("chat"))

	r.Publish("chat", []byte("hi"))

	requireNoSend(t, out)
}

func TestRouterAddPeerAnnouncesOnce(t *testing.T) {
	r, out := newTestRouter(t, event.NewBus(1))
	require.True(t, r.Subscribe("chat"))
	p := coretest.RandPeerIDFatal(t)

	r.AddPeer("chat", p)
	s := <-out
	require.Equal(t, p, s.to)
	require.Equal(t, FrameSubscribe, s.frame.Type)
	require.Equal(t, "chat", s.frame.Topic)

	r.AddPeer("chat", p)
	r.AddPeer("other", p)
	requireNoSend(t, out)
	require.Equal(t, 1, r.View().Len("chat"))
}

func TestRouterPublishReachesEveryPeerInView(t *testing.T) {
	r, out := newTestRouter(t, event.NewBus(1))
	require.True(t, r.Subscribe("chat"))
	p1 := coretest.RandPeerIDFatal(t)
	p2 := coretest.RandPeerIDFatal(t)
	r.AddPeer("chat", p1)
	r.AddPeer("chat", p2)
	<-out
	<-out

	r.Publish("chat", []byte("hello"))

	got := map[peer.ID]Frame{}
	for i := 0; i < 2; i++ {
		s := <-out
		got[s.to] = s.frame
	}
	require.Len(t, got, 2)
	require.Equal(t, []byte("hello"), got[p1].Data)
	require.Equal(t, FrameMessage, got[p2].Type)
	require.Equal(t, got[p1].ID, got[p2].ID)
	requireNoSend(t, out)
}

func TestRouterSendFailureIsContained(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	r := newRouter(context.Background(), event.NewBus(1), Options{}, log)
	calls := make(chan struct{}, 4)
	r.send = func(context.Context, peer.ID, Frame) error {
		calls <- struct{}{}
		return errors.New("unreachable")
	}
	require.True(t, r.Subscribe("chat"))
	r.AddPeer("chat", coretest.RandPeerIDFatal(t))
	r.Publish("chat", []byte("hi"))
	require.NoError(t, r.Close())

	// One announcement and one message, no retries.
	require.Len(t, calls, 2)
}

func TestRouterHandleFrame(t *testing.T) {
	bus := event.NewBus(4)
	r, _ := newTestRouter(t, bus)
	require.True(t, r.Subscribe("chat"))
	p := coretest.RandPeerIDFatal(t)

	r.handleFrame(p, Frame{Type: FrameSubscribe, Topic: "chat"})
	require.Equal(t, event.Subscribed{Peer: p, Topic: "chat"}, <-bus.Events())

	r.handleFrame(p, Frame{Type: FrameMessage, ID: "1", Topic: "chat", Data: []byte("hello")})
	require.Equal(t, event.MessageReceived{ID: "1", Topic: "chat", Source: p, Data: []byte("hello")}, <-bus.Events())

	// Not subscribed: dropped.
	r.handleFrame(p, Frame{Type: FrameMessage, ID: "2", Topic: "elsewhere", Data: []byte("x")})
	select {
	case e := <-bus.Events():
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func newTestHost(t *testing.T) host.Host {
	h, err := libp2p.New(libp2p.ListenAddrStrings("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, h.Close()) })
	return h
}

func connect(t *testing.T, from, to host.Host) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, from.Connect(ctx, peer.AddrInfo{ID: to.ID(), Addrs: to.Addrs()}))
}

// nextEvent waits for the first event of type T, skipping others.
func nextEvent[T event.Event](t *testing.T, bus *event.Bus) T {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case e := <-bus.Events():
			if typed, ok := e.(T); ok {
				return typed
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestRouterOverStreams(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h1, h2 := newTestHost(t), newTestHost(t)
	bus1, bus2 := event.NewBus(16), event.NewBus(16)
	r1 := NewRouter(ctx, h1, bus1, Options{}, log)
	r2 := NewRouter(ctx, h2, bus2, Options{}, log)
	defer r1.Close()
	defer r2.Close()
	require.True(t, r1.Subscribe("chat"))
	require.True(t, r2.Subscribe("chat"))

	connect(t, h1, h2)

	// Adding h2 to the view announces our subscription to it.
	r1.AddPeer("chat", h2.ID())
	sub := nextEvent[event.Subscribed](t, bus2)
	require.Equal(t, h1.ID(), sub.Peer)
	require.Equal(t, "chat", sub.Topic)

	r1.Publish("chat", []byte("hello"))
	msg := nextEvent[event.MessageReceived](t, bus2)
	require.Equal(t, h1.ID(), msg.Source)
	require.Equal(t, "chat", msg.Topic)
	require.Equal(t, []byte("hello"), msg.Data)
}
