package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/NERVsystems/amapmcp/pkg/config"
	"github.com/NERVsystems/amapmcp/pkg/server"
	"github.com/NERVsystems/amapmcp/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath     string
	generateConfig string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "amapmcp",
		Short:         "MCP server exposing the Amap Web Service APIs as tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML, JSON or TOML config file")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("transport", config.TransportStdio, "MCP transport: stdio or sse")
	flags.String("addr", ":8080", "Listen address for the sse transport")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address when set")
	flags.StringVar(&opts.generateConfig, "generate-config", "", "Generate a Claude Desktop Client config file at the specified path")

	for key, flag := range map[string]string{
		"server.debug":        "debug",
		"server.transport":    "transport",
		"server.addr":         "addr",
		"server.metrics_addr": "metrics-addr",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})
	return cmd
}

func newLogger(debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	// stdout belongs to the stdio transport
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

func run(ctx context.Context, v *viper.Viper, opts *options) error {
	debug := v.GetBool("server.debug")
	logger := newLogger(debug)
	slog.SetDefault(logger)

	// Generate Claude Desktop config if requested
	if opts.generateConfig != "" {
		if err := generateClientConfig(opts.generateConfig); err != nil {
			logger.Error("failed to generate config", "error", err)
			return err
		}
		logger.Info("successfully generated Claude Desktop Client config", "path", opts.generateConfig)
		return nil
	}

	cfg, err := config.Load(v, opts.configPath)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}
	if cfg.Server.Debug != debug {
		logger = newLogger(cfg.Server.Debug)
		slog.SetDefault(logger)
	}
	logger.Info("starting Amap MCP server", "version", version.BuildVersion, "config", cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := setupMetrics(cfg.Server.MetricsAddr)
	if err != nil {
		logger.Error("failed to set up metrics", "error", err)
		return err
	}
	metrics, err := amap.NewMetrics(telemetry.meter())
	if err != nil {
		return err
	}

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return err
	}
	client, err := amap.NewClient(clientCfg, amap.WithLogger(logger), amap.WithMetrics(metrics))
	if err != nil {
		logger.Error("failed to create Amap client", "error", err)
		return err
	}
	svc, err := amap.NewService(client, cfg.ServiceOptions(logger, metrics))
	if err != nil {
		return err
	}
	defer svc.Close()

	srv, err := server.NewServer(svc, logger, cfg.ToolTimeout)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		if cfg.Server.Transport == config.TransportSSE {
			return srv.RunSSE(ctx, cfg.Server.Addr, cfg.Server.BaseURL)
		}
		return srv.RunStdio(ctx, os.Stdin, os.Stdout)
	})
	if telemetry.server != nil {
		g.Go(func() error {
			return telemetry.serve(ctx, logger)
		})
	}

	logger.Info("server initialized, waiting for requests", "transport", cfg.Server.Transport)
	err = g.Wait()
	if shutdownErr := telemetry.shutdown(context.Background()); shutdownErr != nil {
		logger.Warn("metrics shutdown", "error", shutdownErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
