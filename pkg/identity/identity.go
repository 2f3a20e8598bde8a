package identity

import (
	"crypto/rand"
	"fmt"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// shortLen is how many characters of a peer ID are shown in the console.
const shortLen = 12

// Identity is the key pair of this node and the peer ID derived from it.
// It lives for the whole process and is never written to disk.
type Identity struct {
	PrivKey crypto.PrivKey
	ID      peer.ID
}

// Generate creates a fresh Ed25519 key pair and derives its peer ID.
func Generate() (Identity, error) {
	priv, pub, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to generate key pair: %w", err)
	}
	id, err := peer.IDFromPublicKey(pub)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to derive peer ID: %w", err)
	}
	return Identity{PrivKey: priv, ID: id}, nil
}

// Option returns the host option that makes libp2p use this identity.
func (i Identity) Option() libp2p.Option {
	return libp2p.Identity(i.PrivKey)
}

// Short returns the first characters of a peer ID for display.
func Short(id peer.ID) string {
	s := id.String()
	if len(s) > shortLen {
		return s[:shortLen]
	}
	return s
}
