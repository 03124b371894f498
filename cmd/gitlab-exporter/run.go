package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/gitlab-exporter/internal/aggregator"
	"github.com/and161185/gitlab-exporter/internal/buildinfo"
	"github.com/and161185/gitlab-exporter/internal/client"
	"github.com/and161185/gitlab-exporter/internal/config"
	"github.com/and161185/gitlab-exporter/internal/poller"
	"github.com/and161185/gitlab-exporter/internal/server"
	"github.com/and161185/gitlab-exporter/internal/utils"
	"github.com/and161185/gitlab-exporter/internal/walker"
	"github.com/and161185/gitlab-exporter/storage/inmemory"
)

func runExporter(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg)
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger
	logger.Infow("starting gitlab-exporter",
		"version", buildinfo.Version(),
		"url", cfg.URL,
		"addr", cfg.Addr(),
		"interval", cfg.PollInterval(),
		"membership", cfg.Membership,
	)

	gitlab := client.NewClient(cfg)
	if err := authenticate(ctx, gitlab, logger); err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted during startup")
			return nil
		}
		return err
	}

	store := inmemory.NewMemStorage()
	agg, err := aggregator.New(store, logger)
	if err != nil {
		return err
	}
	srv, err := server.NewServer(store, cfg)
	if err != nil {
		return err
	}
	p := poller.New(walker.New(gitlab, logger), agg, cfg.PollInterval(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return p.Run(gctx) })
	return g.Wait()
}

// authenticate verifies the token once before serving. Only transient
// network errors are retried; a rejected token stops the exporter.
func authenticate(ctx context.Context, c *client.Client, logger *zap.SugaredLogger) error {
	var user client.User
	err := utils.WithRetry(ctx, func() error {
		var err error
		user, err = c.CurrentUser(ctx)
		if err != nil {
			logger.Warnw("authentication attempt failed", "error", err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("authenticate against GitLab: %w", err)
	}
	logger.Infow("authenticated", "user", user.Username)
	return nil
}
