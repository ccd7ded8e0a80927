package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/hub"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/server"
	"github.com/oshokin/smart-home/internal/version"
)

// defaultSimulatorAddress is where the simulate subcommand listens by default.
const defaultSimulatorAddress = "127.0.0.1:5000"

var (
	// configPath to the configuration YAML file.
	configPath string
	// historyFile overrides where history records are appended.
	historyFile string

	// rootCmd represents the base command for running the controller.
	rootCmd = &cobra.Command{
		Use:   "house-server [listen-address]",
		Short: "Run the smart-home controller and its gRPC API.",
		Long: `Starts the smart-home controller for every house in the configuration file.

Each house with a hub address is polled over the hub line protocol; houses without
one run detached in memory. Every evaluated state can be published to MQTT, history
is recorded to a file or MongoDB and a daily light usage report is written.
Only the port from server_addr is used for listening (e.g., :8080).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HistoryFile:   historyFile,
			}

			return server.Run(ctx, options)
		},
	}

	// simulateCmd serves an in-process house over the hub line protocol.
	simulateCmd = &cobra.Command{
		Use:   "simulate [listen-address]",
		Short: "Run a simulated house hub for development.",
		Long: `Serves a simulated house on the hub line protocol (GS. and SS:...).

Temperature and humidity drift after every request and follow the heater,
chiller and dehumidifier, so the controller can be exercised without hardware.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			ctx = logger.WithName(ctx, "house-simulator")

			address := defaultSimulatorAddress
			if len(args) > 0 {
				address = args[0]
			}

			lc := net.ListenConfig{}

			lis, err := lc.Listen(ctx, "tcp", address)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", address, err)
			}

			logger.InfoKV(ctx, "Simulated hub listening", "listen_address", address)

			return hub.NewSimulator().Serve(ctx, lis)
		},
	}
)

// Execute runs the house-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&historyFile, "history-file", "f", "", "override the history file from the configuration")

	rootCmd.AddCommand(simulateCmd)
}
