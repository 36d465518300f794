package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/infrastructure/container"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg *config.Config
		app := fx.New(
			fx.NopLogger,
			container.Module(configPath),
			fx.Populate(&cfg),
		)
		if err := app.Err(); err != nil {
			return fmt.Errorf("building application: %w", err)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
		defer cancelStart()
		if err := app.Start(startCtx); err != nil {
			return fmt.Errorf("starting application: %w", err)
		}

		// Interrupted, or the server failed and asked fx to shut down
		select {
		case <-ctx.Done():
		case sig := <-app.Wait():
			if sig.ExitCode != 0 {
				_ = stop(app, cfg.Server.ShutdownTimeout)
				return fmt.Errorf("server exited with code %d", sig.ExitCode)
			}
		}

		return stop(app, cfg.Server.ShutdownTimeout)
	},
}

func stop(app *fx.App, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.Stop(ctx); err != nil {
		return fmt.Errorf("stopping application: %w", err)
	}
	return nil
}
