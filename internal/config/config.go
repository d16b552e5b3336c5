// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds the settings shared by huffserver and huffworker.
type Config struct {
	ProjectID       string
	Bucket          string
	JobsTopicID     string
	ResultsTopicID  string
	SubscriptionID  string
	Port            string
	GCSTimeout      time.Duration
	MaxUploadSize   int64
	CountWorkers    int
	ShutdownTimeout time.Duration
}

// Default returns the settings used when nothing is set in the environment.
func Default() Config {
	return Config{
		Port:            "8081",
		GCSTimeout:      50 * time.Second,
		MaxUploadSize:   1 << 30, // 1GB
		CountWorkers:    runtime.NumCPU(),
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads the configuration from environment variables, falling back to
// Default for anything unset.  Malformed numeric or duration values are
// reported as errors.
func Load() (Config, error) {
	cfg := Default()
	cfg.ProjectID = os.Getenv("GCP_PROJECT_ID")
	cfg.Bucket = os.Getenv("GCS_BUCKET")
	cfg.JobsTopicID = os.Getenv("PUBSUB_JOBS_TOPIC_ID")
	cfg.ResultsTopicID = os.Getenv("PUBSUB_RESULTS_TOPIC_ID")
	cfg.SubscriptionID = os.Getenv("PUBSUB_SUB_ID")
	if v := os.Getenv("HTTP_PORT"); v != "" {
		cfg.Port = v
	}

	var err error
	if cfg.GCSTimeout, err = durationEnv("GCS_TIMEOUT", cfg.GCSTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxUploadSize, err = int64Env("MAX_UPLOAD_SIZE", cfg.MaxUploadSize); err != nil {
		return Config{}, err
	}
	workers, err := int64Env("COUNT_WORKERS", int64(cfg.CountWorkers))
	if err != nil {
		return Config{}, err
	}
	if workers < 1 {
		return Config{}, fmt.Errorf("COUNT_WORKERS must be positive, got %d", workers)
	}
	cfg.CountWorkers = int(workers)
	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
