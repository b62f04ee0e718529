package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/setlist/internal/server"
)

// Serve runs the HTTP scrape API until interrupted.
//
// History is recorded and /readyz pings the database when one has been set up.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := *r.config
	if host := cmd.String("host"); host != "" {
		cfg.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Server.Port = port
	}

	opts := server.Options{
		Extractor: r.newScraper(),
		Logger:    r.logger,
	}

	h, err := r.openHistory(false)
	if err != nil {
		return err
	}
	if h != nil {
		defer h.Close()
		opts.Recorder = h.recorder
		opts.Ready = h.db.PingContext
		r.logger.Info("recording history", "database", cfg.Database.Path)
	}

	srv, err := server.NewServer(&cfg, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutdown signal received")
		return nil
	})

	r.writePlain("→ Listening on http://%s\n", srv.Addr())
	return g.Wait()
}
