package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daniacca/hatchery/internal/collection"
	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/hatch/notifiers"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := hatch.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Fatalf("Failed to load catalog: %v", err)
	}
	logger.Infof("Catalog loaded: name=%s species=%d", catalog.Name, len(catalog.All()))

	store, err := collection.Open(ctx, cfg.Store, catalog, logger.With("store"))
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}

	srv := NewServer(logger, catalog, store)
	srv.SetSnapshotDir(cfg.SnapshotDir)
	if cfg.WebhookURL != "" {
		if err := srv.RegisterWebhook("webhook", notifiers.WebhookConfig{URL: cfg.WebhookURL, Secret: cfg.WebhookSecret}); err != nil {
			logger.Fatalf("Failed to register webhook: %v", err)
		}
		logger.Infof("Webhook notifier registered: url=%s signed=%t", cfg.WebhookURL, cfg.WebhookSecret != "")
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("hatchery-server listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown failed: %v", err)
	}
	if err := srv.Close(); err != nil {
		logger.Errorf("Notifier shutdown failed: %v", err)
	}
	if err := store.Close(); err != nil {
		logger.Errorf("Store close failed: %v", err)
	}
}
