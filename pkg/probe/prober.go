// Package probe keeps every open connection under a periodic ping and reports
// the outcome of each round as events.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/baderanaas/chakra/pkg/event"
	"github.com/baderanaas/chakra/pkg/identity"
	"github.com/libp2p/go-libp2p/core/connmgr"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/protocol/ping"
)

// protectTag marks connections the connection manager must not trim.
const protectTag = "chakra-probe"

var ErrProbeTimeout = errors.New("probe timed out")

// State is the position of a peer in the probe cycle.
type State int

const (
	Idle State = iota
	ProbeSent
	Acked
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ProbeSent:
		return "probe-sent"
	case Acked:
		return "acked"
	case TimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// PingFunc starts a ping to p and streams the results.
type PingFunc func(ctx context.Context, p peer.ID) <-chan ping.Result

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Prober pings every connected peer on a fixed interval.
type Prober struct {
	ping    PingFunc
	conns   connmgr.ConnManager
	emitter event.Emitter
	opts    Options
	log     *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	stop   context.CancelFunc
	active map[peer.ID]context.CancelFunc
	states map[peer.ID]State
	wg     sync.WaitGroup
}

// New creates a prober for the connections of h.
func New(h host.Host, emitter event.Emitter, opts Options, log *slog.Logger) *Prober {
	p := newProber(func(ctx context.Context, id peer.ID) <-chan ping.Result {
		return ping.Ping(ctx, h, id)
	}, h.ConnManager(), emitter, opts, log)
	h.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, c network.Conn) {
			p.Watch(c.RemotePeer())
		},
		DisconnectedF: func(n network.Network, c network.Conn) {
			if n.Connectedness(c.RemotePeer()) != network.Connected {
				p.Unwatch(c.RemotePeer())
			}
		},
	})
	return p
}

func newProber(pingFn PingFunc, conns connmgr.ConnManager, emitter event.Emitter, opts Options, log *slog.Logger) *Prober {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Prober{
		ping:    pingFn,
		conns:   conns,
		emitter: emitter,
		opts:    opts,
		log:     log,
		active:  make(map[peer.ID]context.CancelFunc),
		states:  make(map[peer.ID]State),
	}
}

// Start enables probing. Peers watched before Start are picked up now.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx, p.stop = context.WithCancel(ctx)
	for id, cancel := range p.active {
		if cancel == nil {
			p.startLocked(id)
		}
	}
}

// Watch starts probing id if it is not probed already.
func (p *Prober) Watch(id peer.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.active[id]; ok {
		return
	}
	p.active[id] = nil
	p.states[id] = Idle
	p.conns.Protect(id, protectTag)
	if p.ctx != nil {
		p.startLocked(id)
	}
}

// Unwatch stops probing id and lets the connection manager trim it again.
func (p *Prober) Unwatch(id peer.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cancel, ok := p.active[id]
	if !ok {
		return
	}
	if cancel != nil {
		cancel()
	}
	delete(p.active, id)
	delete(p.states, id)
	p.conns.Unprotect(id, protectTag)
}

// State reports where id is in the probe cycle.
func (p *Prober) State(id peer.ID) (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.states[id]
	return s, ok
}

// Wait blocks until every probe loop has returned.
func (p *Prober) Wait() {
	p.wg.Wait()
}

// Stop ends every probe loop, even when the context given to Start is still
// live, and waits for them.
func (p *Prober) Stop() {
	p.mu.Lock()
	if p.stop != nil {
		p.stop()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Prober) startLocked(id peer.ID) {
	ctx, cancel := context.WithCancel(p.ctx)
	p.active[id] = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.loop(ctx, id)
	}()
}

func (p *Prober) loop(ctx context.Context, id peer.ID) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	for {
		p.probe(ctx, id)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// probe runs one round: Idle -> ProbeSent -> Acked | TimedOut, then back to Idle.
func (p *Prober) probe(ctx context.Context, id peer.ID) State {
	p.setState(id, ProbeSent)

	probeCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	var (
		res ping.Result
		ok  bool
	)
	select {
	case res, ok = <-p.ping(probeCtx, id):
		if !ok {
			res.Error = ErrProbeTimeout
		}
	case <-probeCtx.Done():
		res.Error = ErrProbeTimeout
	}
	if ctx.Err() != nil {
		// Shutting down or unwatched; the outcome is meaningless.
		p.setState(id, Idle)
		return Idle
	}

	outcome := Acked
	var e event.Event = event.PeerResponsive{Peer: id, RTT: res.RTT}
	if res.Error != nil {
		outcome = TimedOut
		e = event.PeerUnresponsive{Peer: id, Err: res.Error}
		p.log.Debug("Probe failed", "peer", identity.Short(id), "err", res.Error)
	} else {
		p.log.Debug("Probe acked", "peer", identity.Short(id), "rtt", res.RTT)
	}
	p.setState(id, outcome)
	p.emitter.Emit(ctx, e)
	p.setState(id, Idle)
	return outcome
}

func (p *Prober) setState(id peer.ID, s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.active[id]; ok {
		p.states[id] = s
	}
}
