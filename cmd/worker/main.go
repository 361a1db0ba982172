// Command worker consumes case ingestion events from Kafka, persists the
// cases and keeps the vector index current.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexintel/LexTriage/internal/bootstrap"
	"github.com/lexintel/LexTriage/internal/infrastructure/messaging/kafka"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: LEXTRIAGE_* environment)")
	dataDir := flag.String("data-dir", "", "directory with offenses.json and cases.json seed files")
	flag.Parse()

	if err := run(*configPath, *dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, bootstrap.Options{
		ConfigPath: configPath,
		DataDir:    dataDir,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	if len(app.Config.Kafka.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "worker: kafka.brokers must be configured")
	}

	if err := app.WarmIndex(ctx); err != nil {
		return err
	}

	consumer, err := kafka.NewIngestConsumer(app.Config.Kafka, app.IngestHandler(), app.Logger, app.Metrics)
	if err != nil {
		return err
	}
	defer consumer.Close()

	app.Logger.Info("ingest worker running")
	return consumer.Run(ctx)
}
