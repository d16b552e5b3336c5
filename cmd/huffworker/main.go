// Command huffworker consumes code table jobs from Pub/Sub.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"

	"github.com/chronos-tachyon/huffmantree/internal/common"
	"github.com/chronos-tachyon/huffmantree/internal/config"
	"github.com/chronos-tachyon/huffmantree/internal/logging"
	"github.com/chronos-tachyon/huffmantree/internal/worker"
)

func main() {
	logging.Setup(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

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

	app := &worker.Application{
		Store:          &common.GCSStore{Client: gcsClient},
		Publisher:      &common.PubSubPublisher{Client: pubsubClient},
		Bucket:         cfg.Bucket,
		ResultsTopicID: cfg.ResultsTopicID,
		GCSTimeout:     cfg.GCSTimeout,
	}

	sub := pubsubClient.Subscriber(cfg.SubscriptionID)
	slog.Info("Listening for new code table jobs...", "subscription", cfg.SubscriptionID)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		app.HandleMessage(ctx, &common.PubSubMessage{Msg: msg})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Cannot process jobs", "error", err)
		return
	}
}
