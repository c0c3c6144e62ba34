package main

import (
	"context"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/SimonPop/lanterns/internal/events"
	"github.com/SimonPop/lanterns/internal/metrics"
	"github.com/SimonPop/lanterns/internal/server"
)

// ServeCmd runs the preview server until interrupted.
type ServeCmd struct {
	Port        int    `short:"p" help:"Port to listen on." default:"8000"`
	Bind        string `help:"Interface to listen on." default:"localhost"`
	NatsURL     string `name:"nats-url" help:"Publish settings changes to this NATS server." env:"LANTERNS_NATS_URL"`
	NatsSubject string `name:"nats-subject" help:"Subject for settings change events." default:"${nats_subject}"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var publisher events.Publisher = events.Nop{}
	if s.NatsURL != "" {
		p, err := events.NewNATSPublisher(s.NatsURL, s.NatsSubject, g.Logger)
		if err != nil {
			return err
		}
		publisher = p
	}
	defer publisher.Close()

	srv, err := server.New(ctx, server.Options{
		Root:       root.root(),
		ConfigPath: root.Config,
		Overlays:   root.Overlay,
		Loader:     root.loader(g),
		Addr:       net.JoinHostPort(s.Bind, strconv.Itoa(s.Port)),
		Publisher:  publisher,
		Metrics:    metrics.NewRecorder(nil),
		Logger:     g.Logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
