package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"generalize-service/config"
)

var (
	configPath string
	httpListen string
	grpcListen string

	cfg    config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "generalize",
		Short: "Topology aware vertex weeding and short segment removal",
		Long: `generalize removes vertices closer than a tolerance to the line through
their neighbours while keeping vertices shared with neighbouring features, and
removes segments shorter than a minimum length.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
			if cmd.Flags().Changed("http") {
				cfg.HTTP.Listen = httpListen
			}
			if cmd.Flags().Changed("grpc") {
				cfg.GRPC.Listen = grpcListen
			}
			logger = cfg.Log.Logger(os.Stderr)
			slog.SetDefault(logger)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the generalize service over gRPC and HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	weedCmd = &cobra.Command{
		Use:   "weed [source.geojson...]",
		Short: "Calculate and apply generalization to GeoJSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWeed, // Defined in cmd_weed.go
	}

	calculateCmd = &cobra.Command{
		Use:   "calculate [source.geojson...]",
		Short: "Request removable segments from a running service",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCalculate, // Defined in cmd_calculate.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	serveCmd.Flags().StringVar(&httpListen, "http", "", "HTTP listen address, empty disables HTTP")
	serveCmd.Flags().StringVar(&grpcListen, "grpc", "", "gRPC listen address, empty disables gRPC")

	addWeedFlags(weedCmd)
	addWeedFlags(calculateCmd)
	weedCmd.Flags().StringVarP(&outputPath, "output", "o", "-", "Output GeoJSON file, - for stdout")
	calculateCmd.Flags().StringVar(&remoteAddr, "addr", "localhost:9090", "gRPC address of the service")

	rootCmd.AddCommand(serveCmd, weedCmd, calculateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
