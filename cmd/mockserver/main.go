package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booklib/internal/config"
	"booklib/internal/jsonserver"
	"booklib/internal/jsonstore"
	"booklib/internal/logx"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logx.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, logger *zap.Logger) error {
	store, err := jsonstore.Open(cfg.DBFile, logger)
	if err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	httpServer := jsonserver.NewServer(egCtx, cfg, store, logger)

	eg.Go(func() error {
		logger.Info("starting mock API",
			zap.String("addr", httpServer.Addr),
			zap.String("db", store.Path()),
			zap.Duration("delay", cfg.ResponseDelay))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Watch {
		eg.Go(func() error {
			return store.Watch(egCtx)
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
