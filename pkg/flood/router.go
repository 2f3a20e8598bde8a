package flood

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/baderanaas/chakra/pkg/event"
	"github.com/baderanaas/chakra/pkg/identity"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/samber/lo"
)

type Options struct {
	SendTimeout time.Duration
}

// sendFunc delivers one frame to one peer.
type sendFunc func(ctx context.Context, to peer.ID, f Frame) error

// Router floods frames over short lived libp2p streams, one frame per stream.
//
// Subscribe, AddPeer and Publish must be called from one goroutine (the
// session loop); inbound streams are handled concurrently and only emit
// events.
type Router struct {
	ctx     context.Context
	host    host.Host
	emitter event.Emitter
	opts    Options
	log     *slog.Logger
	send    sendFunc
	view    *View

	subsMux       sync.RWMutex
	subscriptions map[string]struct{}

	wg sync.WaitGroup
}

// NewRouter registers the flood protocol on h.
func NewRouter(ctx context.Context, h host.Host, emitter event.Emitter, opts Options, log *slog.Logger) *Router {
	r := newRouter(ctx, emitter, opts, log)
	r.host = h
	r.send = r.sendStream
	h.SetStreamHandler(ProtocolID, r.handleStream)
	return r
}

func newRouter(ctx context.Context, emitter event.Emitter, opts Options, log *slog.Logger) *Router {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &Router{
		ctx:           ctx,
		emitter:       emitter,
		opts:          opts,
		log:           log,
		view:          NewView(),
		subscriptions: make(map[string]struct{}),
	}
}

func (r *Router) Subscribe(topic string) bool {
	if topic == "" {
		return false
	}
	r.subsMux.Lock()
	if _, exists := r.subscriptions[topic]; exists {
		r.subsMux.Unlock()
		return false
	}
	r.subscriptions[topic] = struct{}{}
	r.subsMux.Unlock()

	// Peers we already know learn about the new subscription.
	for _, p := range r.view.All() {
		r.dispatch(p, newSubscribeFrame(topic))
	}
	return true
}

// Subscribed reports whether topic is subscribed locally.
func (r *Router) Subscribed(topic string) bool {
	r.subsMux.RLock()
	defer r.subsMux.RUnlock()
	_, ok := r.subscriptions[topic]
	return ok
}

// AddPeer adds p to the view of topic. A peer seen for the first time is
// told about every local subscription.
func (r *Router) AddPeer(topic string, p peer.ID) {
	first := !r.view.Known(p)
	if !r.view.Add(topic, p) || !first {
		return
	}
	r.subsMux.RLock()
	topics := lo.Keys(r.subscriptions)
	r.subsMux.RUnlock()
	for _, t := range topics {
		r.dispatch(p, newSubscribeFrame(t))
	}
}

func (r *Router) Publish(topic string, payload []byte) {
	peers := r.view.Peers(topic)
	if len(peers) == 0 {
		r.log.Debug("No peers in view, nothing published", "topic", topic)
		return
	}
	f := newMessageFrame(topic, payload)
	r.log.Debug("Publishing message", "topic", topic, "id", f.ID, "peers", len(peers))
	for _, p := range peers {
		r.dispatch(p, f)
	}
}

// View exposes the flood view; callers must respect the single owner rule.
func (r *Router) View() *View {
	return r.view
}

// Close unregisters the protocol and waits for in-flight sends.
func (r *Router) Close() error {
	if r.host != nil {
		r.host.RemoveStreamHandler(ProtocolID)
	}
	r.wg.Wait()
	return nil
}

// dispatch sends f to p in the background. Failures are logged, never retried.
func (r *Router) dispatch(p peer.ID, f Frame) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(r.ctx, r.opts.SendTimeout)
		defer cancel()
		if err := r.send(ctx, p, f); err != nil {
			r.log.Warn("Failed to send frame", "peer", identity.Short(p), "type", f.Type, "err", err)
		}
	}()
}

func (r *Router) sendStream(ctx context.Context, to peer.ID, f Frame) error {
	s, err := r.host.NewStream(ctx, to, ProtocolID)
	if err != nil {
		return fmt.Errorf("failed to open stream to peer %s: %w", to, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			r.log.Debug("Error closing stream", "err", err)
		}
	}()
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.SetWriteDeadline(deadline)
	}
	if err := writeFrame(s, f); err != nil {
		_ = s.Reset()
		return err
	}
	return nil
}

func (r *Router) handleStream(s network.Stream) {
	defer func() {
		if err := s.Close(); err != nil {
			r.log.Debug("Error closing stream", "err", err)
		}
	}()
	_ = s.SetReadDeadline(time.Now().Add(r.opts.SendTimeout))

	from := s.Conn().RemotePeer()
	f, err := readFrame(s)
	if err != nil {
		r.log.Warn("Dropping frame", "peer", identity.Short(from), "err", err)
		_ = s.Reset()
		return
	}
	r.handleFrame(from, f)
}

func (r *Router) handleFrame(from peer.ID, f Frame) {
	switch f.Type {
	case FrameSubscribe:
		r.emitter.Emit(r.ctx, event.Subscribed{Peer: from, Topic: f.Topic})
	case FrameMessage:
		if !r.Subscribed(f.Topic) {
			r.log.Debug("Dropping message for unsubscribed topic", "topic", f.Topic, "peer", identity.Short(from))
			return
		}
		r.emitter.Emit(r.ctx, event.MessageReceived{
			ID:     f.ID,
			Topic:  f.Topic,
			Source: from,
			Data:   f.Data,
		})
	}
}
