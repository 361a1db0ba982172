package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	httpiface "github.com/lexintel/LexTriage/internal/interfaces/http"
)

func newServeCmd(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the LexTriage API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			app, err := opts.newApp(cmd, true)
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

			app.Logger.Info("api server running",
				logging.Int("port", app.Config.Server.Port),
				logging.String("version", Version))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			app.Logger.Info("shutting down")
			return server.Stop(context.Background())
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port override")
	return cmd
}
