package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"embedding-harmonizer/cmd/harmonizer/cmd/cli"
	"embedding-harmonizer/internal/app"
	"embedding-harmonizer/internal/config"
)

// shutdownTimeout bounds draining in-flight requests on exit.
const shutdownTimeout = 30 * time.Second

var port int

func init() {
	Cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides server.port")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and scheduled discovery",
	Long: `Run the HTTP API and scheduled discovery

The standardization policy's padding strategy is reloaded when the config
file changes. A new target dimension needs a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cli.SignalContext(cmd.Context())
		defer cancel()

		api, cleanup, err := app.InitializeAPIServer(ctx, cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		if port != 0 {
			api.Config.Server.Port = port
			api, err = rebuildServer(api)
			if err != nil {
				return err
			}
		}
		return Run(ctx, api)
	},
}

// rebuildServer applies a --port override after wiring.
func rebuildServer(api *app.APIServer) (*app.APIServer, error) {
	if err := api.Config.Validate(); err != nil {
		return nil, err
	}
	api.Server = app.NewAPIServer(api.Core, api.Scheduler, api.Orchestrator)
	return api, nil
}

// Run serves until ctx ends or the listener fails, then shuts down.
func Run(ctx context.Context, api *app.APIServer) error {
	logger := api.Logger

	api.Loader.Watch(config.ReloadPolicy(api.Standardizer, logger))

	if err := api.Server.Start(); err != nil {
		return err
	}
	if api.Scheduler != nil {
		api.Scheduler.Start()
		defer api.Scheduler.Stop()
		logger.Infow("Discovery scheduled", "schedule", api.Scheduler.Spec(), "next_run", api.Scheduler.Next())
	}
	if api.Config.Discovery.RunOnStart {
		go func() {
			if _, err := api.Discovery.RunCycle(ctx); err != nil {
				logger.Warnw("Startup discovery cycle failed", "error", err)
			}
		}()
	}

	logger.Infow("Serving", "url", api.Config.Server.BaseURL(), "docs", fmt.Sprintf("%s/swagger/index.html", api.Config.Server.BaseURL()))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-api.Server.Errors():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := api.Server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
