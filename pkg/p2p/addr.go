package p2p

import (
	"errors"
	"fmt"
	"strings"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

var (
	ErrMissingPeerID = errors.New("address has no /p2p/<peer-id> component")
	ErrNoTransport   = errors.New("address has no transport and peer routing is disabled")
)

// AddrParser turns a line of user input into something to dial.
type AddrParser func(s string) (peer.AddrInfo, error)

// ParseDialAddr parses a multiaddress ending in /p2p/<peer-id>. A bare
// /p2p/<peer-id> is only accepted when allowBare is set, since it can only
// be resolved through peer routing.
func ParseDialAddr(s string, allowBare bool) (peer.AddrInfo, error) {
	addr, err := ma.NewMultiaddr(strings.TrimSpace(s))
	if err != nil {
		return peer.AddrInfo{}, fmt.Errorf("invalid multiaddress: %w", err)
	}
	if _, err := addr.ValueForProtocol(ma.P_P2P); err != nil {
		return peer.AddrInfo{}, ErrMissingPeerID
	}
	info, err := peer.AddrInfoFromP2pAddr(addr)
	if err != nil {
		return peer.AddrInfo{}, fmt.Errorf("failed to get peer info: %w", err)
	}
	if len(info.Addrs) == 0 && !allowBare {
		return peer.AddrInfo{}, ErrNoTransport
	}
	return *info, nil
}

// Parser binds ParseDialAddr to a routing setting.
func Parser(allowBare bool) AddrParser {
	return func(s string) (peer.AddrInfo, error) {
		return ParseDialAddr(s, allowBare)
	}
}

// FullAddrs returns the addresses of info with the /p2p/<id> suffix other
// nodes need to dial it.
func FullAddrs(info peer.AddrInfo) ([]ma.Multiaddr, error) {
	return peer.AddrInfoToP2pAddrs(&info)
}
