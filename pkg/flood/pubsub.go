package flood

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/baderanaas/chakra/pkg/event"
	"github.com/baderanaas/chakra/pkg/identity"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
)

// joinedTopic bundles what the pubsub router keeps per subscribed topic.
type joinedTopic struct {
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	events *pubsub.TopicEventHandler
}

// PubSubRouter runs flood dissemination on the libp2p floodsub router.
// The local view gates publishing: nothing is sent until a peer was added.
type PubSubRouter struct {
	ctx     context.Context
	cancel  context.CancelFunc
	self    peer.ID
	pubsub  *pubsub.PubSub
	emitter event.Emitter
	opts    Options
	log     *slog.Logger
	view    *View

	joinedTopics    map[string]*joinedTopic
	joinedTopicsMux sync.RWMutex

	wg sync.WaitGroup
}

// NewPubSubRouter attaches a floodsub instance to h.
func NewPubSubRouter(ctx context.Context, h host.Host, emitter event.Emitter, opts Options, log *slog.Logger) (*PubSubRouter, error) {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	ps, err := pubsub.NewFloodSub(ctx, h)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}
	return &PubSubRouter{
		ctx:          ctx,
		cancel:       cancel,
		self:         h.ID(),
		pubsub:       ps,
		emitter:      emitter,
		opts:         opts,
		log:          log,
		view:         NewView(),
		joinedTopics: make(map[string]*joinedTopic),
	}, nil
}

func (r *PubSubRouter) Subscribe(topic string) bool {
	r.joinedTopicsMux.Lock()
	defer r.joinedTopicsMux.Unlock()
	if _, exists := r.joinedTopics[topic]; exists || topic == "" {
		return false
	}

	t, err := r.pubsub.Join(topic)
	if err != nil {
		r.log.Error("Failed to join pubsub topic", "topic", topic, "err", err)
		return false
	}
	sub, err := t.Subscribe()
	if err != nil {
		r.log.Error("Failed to subscribe to pubsub topic", "topic", topic, "err", err)
		_ = t.Close()
		return false
	}
	events, err := t.EventHandler()
	if err != nil {
		r.log.Error("Failed to watch pubsub topic", "topic", topic, "err", err)
		sub.Cancel()
		_ = t.Close()
		return false
	}

	r.joinedTopics[topic] = &joinedTopic{topic: t, sub: sub, events: events}
	r.wg.Add(2)
	go r.handleMessages(topic, sub)
	go r.handlePeerEvents(topic, events)
	return true
}

func (r *PubSubRouter) AddPeer(topic string, p peer.ID) {
	r.view.Add(topic, p)
}

func (r *PubSubRouter) Publish(topic string, payload []byte) {
	if r.view.Len(topic) == 0 {
		r.log.Debug("No peers in view, nothing published", "topic", topic)
		return
	}
	r.joinedTopicsMux.RLock()
	joined, exists := r.joinedTopics[topic]
	r.joinedTopicsMux.RUnlock()
	if !exists {
		r.log.Warn("Not joined to topic", "topic", topic)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(r.ctx, r.opts.SendTimeout)
		defer cancel()
		if err := joined.topic.Publish(ctx, payload); err != nil {
			r.log.Warn("Failed to publish message", "topic", topic, "err", err)
		}
	}()
}

// View exposes the flood view; callers must respect the single owner rule.
func (r *PubSubRouter) View() *View {
	return r.view
}

// Close leaves every topic and stops the pubsub instance.
func (r *PubSubRouter) Close() error {
	r.joinedTopicsMux.Lock()
	for name, joined := range r.joinedTopics {
		joined.events.Cancel()
		joined.sub.Cancel()
		if err := joined.topic.Close(); err != nil {
			r.log.Debug("Error closing topic", "topic", name, "err", err)
		}
		delete(r.joinedTopics, name)
	}
	r.joinedTopicsMux.Unlock()
	r.cancel()
	r.wg.Wait()
	return nil
}

func (r *PubSubRouter) handleMessages(topic string, sub *pubsub.Subscription) {
	defer r.wg.Done()
	for {
		msg, err := sub.Next(r.ctx)
		if err != nil {
			if r.ctx.Err() == nil {
				r.log.Debug("Subscription ended", "topic", topic, "err", err)
			}
			return
		}
		if msg.GetFrom() == r.self {
			continue
		}
		r.emitter.Emit(r.ctx, event.MessageReceived{
			ID:     msg.ID,
			Topic:  topic,
			Source: msg.GetFrom(),
			Data:   msg.GetData(),
		})
	}
}

func (r *PubSubRouter) handlePeerEvents(topic string, events *pubsub.TopicEventHandler) {
	defer r.wg.Done()
	for {
		pe, err := events.NextPeerEvent(r.ctx)
		if err != nil {
			return
		}
		if pe.Type != pubsub.PeerJoin {
			continue
		}
		r.log.Debug("Peer joined topic", "topic", topic, "peer", identity.Short(pe.Peer))
		r.emitter.Emit(r.ctx, event.Subscribed{Peer: pe.Peer, Topic: topic})
	}
}
