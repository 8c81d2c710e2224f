package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MimoJanra/StatusPulse/internal/aggregator"
	"github.com/MimoJanra/StatusPulse/internal/config"
	"github.com/MimoJanra/StatusPulse/internal/logging"
	"github.com/MimoJanra/StatusPulse/internal/transport"
)

// @title           StatusPulse API
// @version         1.0
// @description     Aggregated service status and uptime metrics from the monitoring backend.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "statuspulse",
		Short:         "Service status aggregation for the monitoring backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides CONFIG_FILE)")

	root.AddCommand(
		newServeCmd(&configPath),
		newStatusCmd(&configPath),
	)
	return root
}

// app is the wiring shared by every command.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	aggregator *aggregator.Aggregator
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	client, err := transport.NewClient(transport.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	agg := aggregator.New(client, aggregator.Options{
		UseBatch:      cfg.BatchEndpoint,
		FailurePolicy: aggregator.FailurePolicy(cfg.MetricsFailurePolicy),
	}, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		aggregator: agg,
	}, nil
}
