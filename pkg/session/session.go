//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../../mocks/mock_session.go -package=mocks

// Package session runs the control loop of a chat node. It merges the user's
// input lines with network events and decides what each of them means for
// the session: dial, publish, render, or grow the flood view.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/baderanaas/chakra/pkg/console"
	"github.com/baderanaas/chakra/pkg/event"
	"github.com/baderanaas/chakra/pkg/identity"
	"github.com/baderanaas/chakra/pkg/p2p"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/samber/lo"
)

// Dialer opens outbound connections. Dial must not block on the connection.
type Dialer interface {
	Dial(ctx context.Context, info peer.AddrInfo) error
}

// Disseminator is the flood layer as seen by the session.
type Disseminator interface {
	AddPeer(topic string, p peer.ID)
	Publish(topic string, payload []byte)
}

// Presenter renders the chat for the user.
type Presenter interface {
	Prompt(self peer.ID)
	Message(from peer.ID, payload []byte)
	Notice(format string, args ...any)
}

// PeerPhase is how far the session got with a peer.
type PeerPhase int

const (
	// PhaseDialing means a dial was requested and not confirmed yet.
	PhaseDialing PeerPhase = iota + 1
	// PhaseConfirmed means a liveness probe to the peer succeeded.
	PhaseConfirmed
)

func (p PeerPhase) String() string {
	switch p {
	case PhaseDialing:
		return "dialing"
	case PhaseConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Config names this node and the topic it chats on.
type Config struct {
	Self  peer.ID
	Topic string
}

// Session holds all state of the control loop. It is driven by a single
// goroutine and needs no locking.
type Session struct {
	self   peer.ID
	topic  string
	peers  map[peer.ID]PeerPhase
	dialer Dialer
	flood  Disseminator
	out    Presenter
	parse  func(string) (peer.AddrInfo, error)
	log    *slog.Logger
}

func New(cfg Config, dialer Dialer, flood Disseminator, out Presenter, parse func(string) (peer.AddrInfo, error), log *slog.Logger) *Session {
	return &Session{
		self:   cfg.Self,
		topic:  cfg.Topic,
		peers:  make(map[peer.ID]PeerPhase),
		dialer: dialer,
		flood:  flood,
		out:    out,
		parse:  parse,
		log:    log,
	}
}

// Established reports whether chat mode has begun, which is the case once
// any peer answered a liveness probe. It never turns false again.
func (s *Session) Established() bool {
	return lo.ContainsBy(lo.Values(s.peers), func(p PeerPhase) bool {
		return p == PhaseConfirmed
	})
}

// Phase returns what the session knows about p.
func (s *Session) Phase(p peer.ID) (PeerPhase, bool) {
	phase, ok := s.peers[p]
	return phase, ok
}

// Run processes one input line or one network event at a time until the
// input ends, the event source closes, or ctx is cancelled.
func (s *Session) Run(ctx context.Context, lines <-chan console.Line, events <-chan event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				s.log.Debug("Input closed, leaving session loop")
				return nil
			}
			s.HandleLine(ctx, line)
		case e, ok := <-events:
			if !ok {
				s.log.Debug("Event source closed, leaving session loop")
				return nil
			}
			s.HandleEvent(e)
		}
	}
}

// HandleLine applies one line of user input.
func (s *Session) HandleLine(ctx context.Context, line console.Line) {
	if line.Err != nil {
		s.log.Warn("Something went wrong while reading the line, try again!", "err", line.Err)
		return
	}
	if s.Established() {
		s.out.Prompt(s.self)
		s.flood.Publish(s.topic, []byte(line.Text))
		return
	}

	info, err := s.parse(line.Text)
	if errors.Is(err, p2p.ErrMissingPeerID) {
		s.out.Notice("⚠️ %s has no /p2p/<peer-id> part, paste the full address the other node printed", line.Text)
		return
	}
	if err != nil {
		s.log.Warn("Entered string is not an address, try again!", "input", line.Text, "err", err)
		return
	}
	if err := s.dialer.Dial(ctx, info); err != nil {
		s.log.Warn("Failed to dial", "peer", identity.Short(info.ID), "err", err)
		return
	}
	if _, known := s.peers[info.ID]; !known {
		s.peers[info.ID] = PhaseDialing
	}
	s.out.Notice("⏳ Dialing %s. You will get notice once connection is established.", info.ID)
}

// HandleEvent applies one network event.
func (s *Session) HandleEvent(e event.Event) {
	switch e := e.(type) {
	case event.NewListenAddr:
		s.out.Notice("🌐 One of your possible addresses is %s", e.Addr)

	case event.PeerResponsive:
		if s.peers[e.Peer] == PhaseConfirmed {
			return
		}
		s.flood.AddPeer(s.topic, e.Peer)
		s.peers[e.Peer] = PhaseConfirmed
		s.out.Notice("✅ Connection established with %s", e.Peer)

	case event.PeerUnresponsive:
		s.log.Debug("Peer did not answer probe", "peer", identity.Short(e.Peer), "err", e.Err)

	case event.Subscribed:
		if e.Topic != s.topic {
			s.log.Debug("Ignoring subscription to other topic", "peer", identity.Short(e.Peer), "topic", e.Topic)
			return
		}
		s.flood.AddPeer(s.topic, e.Peer)
		s.out.Notice("💬 Chat started with peer %s. Say something!", e.Peer)
		s.out.Prompt(s.self)

	case event.MessageReceived:
		s.out.Message(e.Source, e.Data)
		s.out.Prompt(s.self)

	case event.DialFailed:
		if s.peers[e.Peer] == PhaseDialing {
			delete(s.peers, e.Peer)
		}
		s.log.Warn("Could not connect, try another address", "addr", e.Addr, "err", e.Err)

	default:
		s.log.Debug("Ignoring event", "type", fmt.Sprintf("%T", e))
	}
}
