// Package serve implements the HTTP server subcommand.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/url-catalog/urlcatalog/cmd/common"
	"github.com/url-catalog/urlcatalog/internal/api"
)

const shutdownTimeout = 30 * time.Second

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

// run starts the server and blocks until interrupted.
func run(ctx context.Context) error {
	deps, err := common.Build(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	handler := api.NewHandler(deps.Pipeline, deps.Catalog, deps.Transfer, deps.Store, deps.Logger)
	server := api.NewServer(&deps.Config.Server, handler, deps.Logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		deps.Logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
