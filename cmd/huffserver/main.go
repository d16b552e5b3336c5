// Command huffserver serves the Huffman code API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"

	"github.com/chronos-tachyon/huffmantree/internal/common"
	"github.com/chronos-tachyon/huffmantree/internal/config"
	"github.com/chronos-tachyon/huffmantree/internal/logging"
	"github.com/chronos-tachyon/huffmantree/internal/server"
)

func main() {
	logging.Setup(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	port := flag.String("port", cfg.Port, "port to listen on")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// initialize GCP services
	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		slog.Error("Cannot create new client for GCS", "error", err)
		return
	}
	defer gcsClient.Close()
	slog.Debug("Initialized a GCS client.")

	pubsubClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Cannot create new client for Pub/Sub", "error", err)
		return
	}
	defer pubsubClient.Close()
	slog.Debug("Initialized a Pub/Sub client.")

	app := &server.Application{
		Store:         &common.GCSStore{Client: gcsClient},
		Publisher:     &common.PubSubPublisher{Client: pubsubClient},
		Bucket:        cfg.Bucket,
		JobsTopicID:   cfg.JobsTopicID,
		MaxUploadSize: cfg.MaxUploadSize,
		GCSTimeout:    cfg.GCSTimeout,
		CountWorkers:  cfg.CountWorkers,
	}

	srv := &http.Server{Addr: ":" + *port, Handler: app.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down cleanly", "error", err)
		}
	}()

	slog.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return
	}
}
