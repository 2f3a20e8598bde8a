// Package p2p builds the libp2p host a chat node runs on and exposes the
// operations the session needs from it: dialing and listen address reports.
package p2p

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/baderanaas/chakra/pkg/event"
	"github.com/baderanaas/chakra/pkg/identity"
	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	p2pevent "github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/routing"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	ma "github.com/multiformats/go-multiaddr"
)

var ErrSelfDial = errors.New("refusing to dial our own peer ID")

type Options struct {
	Port int
	// ListenAddrs overrides the default /ip4/0.0.0.0/tcp/<Port> listener.
	ListenAddrs []string
	ConnLow     int
	ConnHigh    int
	ConnGrace   time.Duration
	DialTimeout time.Duration
	EnableDHT   bool
}

func (o Options) listenAddrs() []string {
	if len(o.ListenAddrs) > 0 {
		return o.ListenAddrs
	}
	return []string{fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", o.Port)}
}

// Node owns the libp2p host of this process.
type Node struct {
	host    host.Host
	ctx     context.Context
	cancel  context.CancelFunc
	dht     *dht.IpfsDHT
	emitter event.Emitter
	opts    Options
	log     *slog.Logger

	reported    map[string]struct{}
	reportedMux sync.Mutex

	wg sync.WaitGroup
}

// NewNode creates the host and binds its listeners. A bind failure is
// returned as is; there is nothing to chat over without a listener.
func NewNode(ctx context.Context, id identity.Identity, emitter event.Emitter, opts Options, log *slog.Logger) (*Node, error) {
	if opts.ConnLow <= 0 {
		opts.ConnLow = 50
	}
	if opts.ConnHigh < opts.ConnLow {
		opts.ConnHigh = opts.ConnLow * 4
	}
	if opts.ConnGrace <= 0 {
		opts.ConnGrace = time.Minute
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)

	cm, err := connmgr.NewConnManager(opts.ConnLow, opts.ConnHigh, connmgr.WithGracePeriod(opts.ConnGrace))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}

	var idht *dht.IpfsDHT
	hostOpts := []libp2p.Option{
		libp2p.ListenAddrStrings(opts.listenAddrs()...),
		id.Option(),
		libp2p.ConnectionManager(cm),
	}
	if opts.EnableDHT {
		hostOpts = append(hostOpts, libp2p.Routing(func(h host.Host) (routing.PeerRouting, error) {
			var err error
			idht, err = dht.New(ctx, h, dht.Mode(dht.ModeServer))
			return idht, err
		}))
	}

	h, err := libp2p.New(hostOpts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}

	if idht != nil {
		if err := idht.Bootstrap(ctx); err != nil {
			log.Warn("DHT bootstrap warning", "err", err)
		}
	}

	return &Node{
		host:     h,
		ctx:      ctx,
		cancel:   cancel,
		dht:      idht,
		emitter:  emitter,
		opts:     opts,
		log:      log,
		reported: make(map[string]struct{}),
	}, nil
}

func (n *Node) Host() host.Host {
	return n.host
}

func (n *Node) ID() peer.ID {
	return n.host.ID()
}

// RoutingEnabled reports whether peers can be found by ID alone.
func (n *Node) RoutingEnabled() bool {
	return n.dht != nil
}

// Start reports the current listen addresses and keeps reporting new ones.
func (n *Node) Start() error {
	sub, err := n.host.EventBus().Subscribe(new(p2pevent.EvtLocalAddressesUpdated))
	if err != nil {
		return fmt.Errorf("failed to subscribe to address updates: %w", err)
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer sub.Close()
		for _, addr := range n.host.Addrs() {
			n.reportAddr(addr)
		}
		for {
			select {
			case <-n.ctx.Done():
				return
			case e, ok := <-sub.Out():
				if !ok {
					return
				}
				evt, ok := e.(p2pevent.EvtLocalAddressesUpdated)
				if !ok {
					continue
				}
				for _, ua := range evt.Current {
					if ua.Action == p2pevent.Added || ua.Action == p2pevent.Maintained {
						n.reportAddr(ua.Address)
					}
				}
			}
		}
	}()
	return nil
}

// reportAddr emits addr once, in the dialable /p2p/<id> form.
func (n *Node) reportAddr(addr ma.Multiaddr) {
	full, err := FullAddrs(peer.AddrInfo{ID: n.host.ID(), Addrs: []ma.Multiaddr{addr}})
	if err != nil || len(full) == 0 {
		n.log.Debug("Skipping listen address", "addr", addr, "err", err)
		return
	}
	n.reportedMux.Lock()
	_, seen := n.reported[full[0].String()]
	n.reported[full[0].String()] = struct{}{}
	n.reportedMux.Unlock()
	if seen {
		return
	}
	n.emitter.Emit(n.ctx, event.NewListenAddr{Addr: full[0]})
}

// Dial connects to info in the background. Only a self dial fails here;
// connection errors arrive later as event.DialFailed.
func (n *Node) Dial(ctx context.Context, info peer.AddrInfo) error {
	if info.ID == n.host.ID() {
		return ErrSelfDial
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		dialCtx, cancel := context.WithTimeout(n.ctx, n.opts.DialTimeout)
		defer cancel()
		if err := n.host.Connect(dialCtx, info); err != nil {
			n.log.Debug("Dial failed", "peer", identity.Short(info.ID), "err", err)
			n.emitter.Emit(ctx, event.DialFailed{
				Peer: info.ID,
				Addr: addrString(info),
				Err:  err,
			})
			return
		}
		n.log.Debug("Connected", "peer", identity.Short(info.ID))
	}()
	return nil
}

// Close shuts down the node.
func (n *Node) Close() error {
	n.cancel()
	n.wg.Wait()
	var errs []error
	if n.dht != nil {
		errs = append(errs, n.dht.Close())
	}
	errs = append(errs, n.host.Close())
	return errors.Join(errs...)
}

func addrString(info peer.AddrInfo) string {
	full, err := FullAddrs(info)
	if err != nil || len(full) == 0 {
		return info.ID.String()
	}
	return full[0].String()
}
