// Command apiserver runs the LexTriage HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexintel/LexTriage/internal/bootstrap"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	httpiface "github.com/lexintel/LexTriage/internal/interfaces/http"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: LEXTRIAGE_* environment)")
	dataDir := flag.String("data-dir", "", "directory with offenses.json and cases.json seed files")
	port := flag.Int("port", 0, "HTTP port override")
	flag.Parse()

	if err := run(*configPath, *dataDir, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string, port int) error {
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

	if port > 0 {
		app.Config.Server.Port = port
	}

	if err := app.WarmIndex(ctx); err != nil {
		return err
	}

	server := httpiface.NewServer(app.Config.Server, app.HTTPHandler(), app.Logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("signal received, shutting down",
		logging.Int("port", app.Config.Server.Port))
	return server.Stop(context.Background())
}
