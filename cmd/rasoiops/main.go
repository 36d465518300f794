// Package main is the rasoiops command: the HTTP API server plus one-shot
// scan and suggest commands against the configured model provider
package main

import (
	"fmt"
	"os"

	appai "github.com/rasoiops/rasoiops/internal/application/ai"
	aiinfra "github.com/rasoiops/rasoiops/internal/infrastructure/ai"
	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/rasoiops/rasoiops/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "rasoiops",
	Short:         "Kitchen inventory tracker with AI extraction and recipe suggestions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: config.yaml in ., ./config or /etc/rasoiops)")
	rootCmd.AddCommand(serveCmd, scanCmd, suggestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// oneShot holds what the scan and suggest commands need
type oneShot struct {
	cfg      *config.Config
	live     *config.Live
	logger   *zap.Logger
	provider outbound.ModelProvider
	opts     appai.Options
}

// newOneShot loads configuration and the model provider. Logs go to stderr so
// stdout carries only the JSON result.
func newOneShot() (*oneShot, error) {
	cfg, live, err := config.LoadLive(configPath, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      "console",
		Development: cfg.App.Debug,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	provider, err := aiinfra.NewProvider(cfg.AI, log)
	if err != nil {
		return nil, err
	}

	return &oneShot{
		cfg:      cfg,
		live:     live,
		logger:   log,
		provider: provider,
		opts: appai.Options{
			RetryPolicy:   live.RetryPolicy,
			Temperature:   cfg.AI.Temperature,
			MaxImageBytes: cfg.AI.MaxImageBytes,
		},
	}, nil
}
