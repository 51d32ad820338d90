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

	"barstock/internal/catalog"
	"barstock/internal/config"
	"barstock/internal/logging"
	"barstock/internal/refresher"
	"barstock/internal/storage"
	"barstock/internal/web"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := catalog.NewFromConfig(ctx, db, cfg)
	must(err)
	if _, err := svc.WarmStart(); err != nil {
		slog.Warn("warm start failed", "error", err)
	}

	gate := &refresher.Gate{}
	interval := time.Duration(cfg.RefreshIntervalSec) * time.Second
	bg := refresher.NewService(svc, gate, interval)
	go func() {
		if err := bg.Run(ctx, cfg.RefreshOnStart); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("refresher stopped", "error", err)
		}
	}()

	srv := web.NewServer(svc, gate)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			must(err)
		}
	}

	slog.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	must(srv.Shutdown(shutdownCtx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
