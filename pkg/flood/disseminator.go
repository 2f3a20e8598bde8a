// Package flood implements topic based flood dissemination: every message is
// sent directly to each peer in the local view of its topic.
package flood

import "github.com/libp2p/go-libp2p/core/peer"

// Disseminator is the contract shared by the flood backends.
type Disseminator interface {
	// Subscribe registers local interest in topic. False means the
	// subscription conflicts with an existing one or was rejected.
	Subscribe(topic string) bool
	// AddPeer records p in the view of topic. Calling it again is a no-op.
	AddPeer(topic string, p peer.ID)
	// Publish sends payload to every peer in the view of topic without
	// waiting for delivery.
	Publish(topic string, payload []byte)
	Close() error
}

var (
	_ Disseminator = (*Router)(nil)
	_ Disseminator = (*PubSubRouter)(nil)
)
