package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/victorzsh/blackjack-server/internal/game"
	"github.com/victorzsh/blackjack-server/internal/randutil"
	"github.com/victorzsh/blackjack-server/internal/server"
)

// ServerCmd contains the server configuration
type ServerCmd struct {
	Addr   string `kong:"help='Listen address (overrides the config file)'"`
	Config string `kong:"default='blackjack.hcl',help='HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if level, err := log.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	var rng = randutil.NewFromTime()
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		rng = randutil.New(*c.Seed)
	}

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	registry := game.NewRegistry(rng, cfg.Game.DefaultMode, logger)
	srv := server.NewServer(addr, registry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		return srv.Stop()
	})

	return g.Wait()
}
