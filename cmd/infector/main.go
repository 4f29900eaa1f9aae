package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"infector_go/internal/config"
	"infector_go/internal/logger"
	"infector_go/internal/netplay"
	"infector_go/internal/session"
	"infector_go/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.Init(cfg.LogLevel, cfg.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeHost:
		err = runHost(ctx, cfg)
	case config.ModeJoin:
		err = runJoin(ctx, cfg)
	default:
		err = runLocal(cfg)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", string(cfg.Mode)).Msg("game ended with an error")
	}
}

func runLocal(cfg *config.Config) error {
	gc, err := cfg.GameConfig()
	if err != nil {
		return err
	}
	s, err := session.New(gc, cfg.AI, cfg.StrategyOptions()...)
	if err != nil {
		return err
	}
	return ui.Run(s, cfg.Reveal, nil, "Infector")
}

func runHost(ctx context.Context, cfg *config.Config) error {
	gc, err := cfg.GameConfig()
	if err != nil {
		return err
	}
	srv := netplay.NewServer(gc)
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe(cfg.Listen) }()

	select {
	case <-srv.Ready():
	case err := <-errc:
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	case <-ctx.Done():
		srv.Close()
		return nil
	}

	s, err := session.New(gc, cfg.AI, cfg.StrategyOptions()...)
	if err != nil {
		srv.Close()
		return err
	}
	s.AttachPeer(srv)
	return ui.Run(s, cfg.Reveal, srv.Inbound(), "Infector (host)")
}

func runJoin(ctx context.Context, cfg *config.Config) error {
	log.Info().Str("url", cfg.Join).Msg("joining game, waiting for host to start")
	cl, err := netplay.Dial(ctx, cfg.Join)
	if err != nil {
		return err
	}
	gc, err := cl.GameConfig()
	if err != nil {
		cl.Close()
		return err
	}
	s, err := session.New(gc, cfg.AI, cfg.StrategyOptions()...)
	if err != nil {
		cl.Close()
		return err
	}
	s.AttachPeer(cl)
	title := fmt.Sprintf("Infector (%s)", cl.Seat())
	return ui.Run(s, cfg.Reveal, cl.Inbound(), title)
}
