package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/analysis"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/annotation"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/api"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/config"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/db"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/listing"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/logging"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/metrics"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/pipeline"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/queue"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	// Optional; production deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting video analysis service",
		"version", config.Version,
		"data_dir", cfg.DataDir(),
		"queue_capacity", cfg.QueueCapacity(),
		"cooldown", cfg.Cooldown().String(),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	records := store.NewSQLiteStore(database.Conn(), logging.WithComponent(logger, "store"))
	m := metrics.New()

	provider := annotation.NewHTTPProvider(annotation.HTTPProviderConfig{
		BaseURL:  cfg.VideoIntelBaseURL(),
		APIKey:   cfg.VideoIntelAPIKey(),
		PollWait: cfg.AnnotationPollWait(),
		Logger:   logging.WithComponent(logger, "annotation"),
	})

	generator := listing.NewOpenAIGenerator(listing.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey(),
		BaseURL: cfg.OpenAIBaseURL(),
		Model:   cfg.OpenAIModel(),
		Logger:  logging.WithComponent(logger, "listing"),
	})

	processor := pipeline.NewProcessor(pipeline.ProcessorConfig{
		Provider:  provider,
		Generator: generator,
		Records:   records,
		SummaryOptions: analysis.SummaryOptions{
			ConfidenceThreshold: cfg.ConfidenceThreshold(),
			FrameInterval:       cfg.FrameInterval(),
			TextWindowSeconds:   cfg.TextWindow(),
			Taxonomy:            analysis.DefaultTaxonomy(),
		},
		AnnotationTimeout: cfg.AnnotationTimeout(),
		Logger:            logging.WithComponent(logger, "pipeline"),
	})

	q := queue.New(processor.Process, queue.Options{
		Capacity: cfg.QueueCapacity(),
		Cooldown: cfg.Cooldown(),
		Metrics:  m,
		Logger:   logging.WithComponent(logger, "queue"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go q.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Queue:     q,
		Records:   records,
		Metrics:   m,
		Logger:    logging.WithComponent(logger, "api"),
		StartTime: startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
