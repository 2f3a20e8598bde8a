// Package event defines the network events consumed by the session loop and
// the bus that carries them.
package event

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// Event is anything a network component reports to the session loop.
type Event interface {
	event()
}

// NewListenAddr reports an address this node can be reached on.
type NewListenAddr struct {
	Addr ma.Multiaddr
}

// PeerResponsive is emitted when a liveness probe to Peer was acknowledged.
type PeerResponsive struct {
	Peer peer.ID
	RTT  time.Duration
}

// PeerUnresponsive is emitted when a liveness probe to Peer timed out or failed.
type PeerUnresponsive struct {
	Peer peer.ID
	Err  error
}

// Subscribed is emitted when a remote peer announces a topic subscription.
type Subscribed struct {
	Peer  peer.ID
	Topic string
}

// MessageReceived carries a chat message for a locally subscribed topic.
// Data is raw bytes and may not be valid UTF-8.
type MessageReceived struct {
	ID     string
	Topic  string
	Source peer.ID
	Data   []byte
}

// DialFailed is emitted when an outbound connection attempt did not succeed.
type DialFailed struct {
	Peer peer.ID
	Addr string
	Err  error
}

func (NewListenAddr) event()    {}
func (PeerResponsive) event()   {}
func (PeerUnresponsive) event() {}
func (Subscribed) event()       {}
func (MessageReceived) event()  {}
func (DialFailed) event()       {}
