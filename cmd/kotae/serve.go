package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var warmup bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the inbox watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, warmup)
		},
	}
	cmd.Flags().BoolVar(&warmup, "warmup", false, "load the embedding model at startup instead of on the first request")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, warmup bool) error {
	cfg, configPath, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", configPath),
		zap.Bool("debug", cfg.Debug || opts.debug),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if warmup {
		go func() {
			if err := components.Provider.Warmup(ctx); err != nil {
				logger.Warn("embedding model warmup failed", zap.Error(err))
			}
		}()
	}

	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		components.Indexer,
		watcher.WithLogger(logger),
		watcher.WithIngestHook(func(path string, res *models.IngestResult, err error) {
			if err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		}),
	)
	if err := watchSvc.Start(ctx); err != nil {
		return err
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Store,
		cfg,
		logger,
		server.WithWatch(watchSvc, configPath),
		server.WithModelStatus(components.Provider),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
