package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/baderanaas/chakra/pkg/config"
	"github.com/baderanaas/chakra/pkg/console"
	"github.com/baderanaas/chakra/pkg/event"
	"github.com/baderanaas/chakra/pkg/flood"
	"github.com/baderanaas/chakra/pkg/identity"
	"github.com/baderanaas/chakra/pkg/p2p"
	"github.com/baderanaas/chakra/pkg/probe"
	"github.com/baderanaas/chakra/pkg/session"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const eventBufferSize = 64

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chakra terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the node together and blocks until the input ends or the process
// is interrupted. Startup failures are the only errors it returns.
func run() (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}
	flag.IntVar(&cfg.Port, "port", cfg.Port, "Listen port (random if not specified)")
	flag.StringVar(&cfg.Topic, "topic", cfg.Topic, "Chat topic")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		return exitConfig, err
	}

	log := logs.GetLoggerFromString(cfg.LogLevel)
	color.Enable = cfg.Color
	out := console.NewPrinter(os.Stdout, cfg.Color)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := identity.Generate()
	if err != nil {
		return exitRuntime, err
	}

	bus := event.NewBus(eventBufferSize)
	defer bus.Close()

	node, err := p2p.NewNode(ctx, id, bus, p2p.Options{
		Port:        cfg.Port,
		ConnLow:     cfg.ConnLow,
		ConnHigh:    cfg.ConnHigh,
		DialTimeout: cfg.DialTimeout,
		EnableDHT:   cfg.EnableDHT,
	}, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		if err := node.Close(); err != nil {
			log.Warn("Failed to close node", "err", err)
		}
	}()

	prober := probe.New(node.Host(), bus, probe.Options{
		Interval: cfg.ProbeInterval,
		Timeout:  cfg.ProbeTimeout,
	}, log)
	prober.Start(ctx)
	defer prober.Stop()

	dissem, err := newDisseminator(ctx, cfg, node, bus, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		if err := dissem.Close(); err != nil {
			log.Warn("Failed to close flood layer", "err", err)
		}
	}()
	if !dissem.Subscribe(cfg.Topic) {
		return exitRuntime, fmt.Errorf("failed to subscribe to topic %q", cfg.Topic)
	}

	out.Notice("🔑 Your peer ID is %s", id.ID)
	out.Notice("📡 Paste the address of another node to connect, you will chat on topic %q", cfg.Topic)

	if err := node.Start(); err != nil {
		return exitRuntime, err
	}

	s := session.New(
		session.Config{Self: id.ID, Topic: cfg.Topic},
		node, dissem, out, p2p.Parser(node.RoutingEnabled()), log,
	)
	err = s.Run(ctx, console.ReadLines(ctx, os.Stdin), bus.Events())
	// Stop probes and handlers before the deferred closes run.
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return exitRuntime, err
	}
	out.Notice("🔌 Shutting down node...")
	return exitOK, nil
}

func newDisseminator(ctx context.Context, cfg config.Config, node *p2p.Node, bus *event.Bus, log *slog.Logger) (flood.Disseminator, error) {
	opts := flood.Options{SendTimeout: cfg.SendTimeout}
	switch cfg.Dissemination {
	case config.DisseminationFloodSub:
		return flood.NewPubSubRouter(ctx, node.Host(), bus, opts, log)
	default:
		return flood.NewRouter(ctx, node.Host(), bus, opts, log), nil
	}
}
