package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuanying/maktaba/internal/assets"
	"github.com/yuanying/maktaba/internal/config"
	"github.com/yuanying/maktaba/internal/reader"
	"github.com/yuanying/maktaba/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over HTTP",
		Long: `Serve the library catalog, chapters, downloads and word lookups over HTTP.

Settings are read from MAKTABA_* environment variables; --addr overrides
MAKTABA_ADDR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := readLogger(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides MAKTABA_ADDR)")
	return cmd
}

func newSource(cfg *config.Config) (assets.Source, error) {
	if cfg.AssetURL != "" {
		return assets.NewHTTPSource(cfg.AssetURL, cfg.FetchTimeout)
	}
	info, err := os.Stat(cfg.AssetDir)
	if err != nil {
		return nil, fmt.Errorf("asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory %s is not a directory", cfg.AssetDir)
	}
	return assets.DirSource{FS: os.DirFS(cfg.AssetDir)}, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	lib, err := server.LoadLibrary(ctx, src, logger)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	var scroll reader.ScrollStore
	if cfg.RedisURL != "" {
		client, err := reader.DialRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		scroll = reader.NewRedisScrollStore(client, cfg.ScrollTTL)
	}

	srv := server.New(ctx, server.Options{
		Addr:        cfg.Addr,
		Library:     lib,
		Scroll:      scroll,
		ScrollTTL:   cfg.ScrollTTL,
		LoadTimeout: cfg.FetchTimeout * 2,
		RateLimit:   cfg.RateLimit,
		Burst:       cfg.Burst,
		Logger:      logger,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := srv.Shutdown(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}
