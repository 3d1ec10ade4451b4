// Package main provides the arena-unity bridge binary entry point.
// The bridge serves entity lifecycle requests for a robot simulation over
// NATS.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/metric"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/spf13/cobra"

	"github.com/andersonmmachado/arena-unity/config"
	entitybridge "github.com/andersonmmachado/arena-unity/processor/entity-bridge"
	"github.com/andersonmmachado/arena-unity/robotconfig"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "arena-unity"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagValues holds command-line overrides. Only flags the user actually set
// are applied on top of the loaded config.
type flagValues struct {
	configPath   string
	arenaRoot    string
	natsURL      string
	rgbdFallback bool
	watchModels  bool
	logLevel     string
}

func rootCmd() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Robot simulation entity bridge",
		Long: `arena-unity serves entity lifecycle requests for a robot simulation.

It spawns robots (with sensors wired from their model files), pedestrians and
obstacles, moves and deletes them, and rebuilds wall layouts. Requests arrive
over NATS using the semstreams framework.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return run(cfg, logger)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.arenaRoot, "arena-root", "", "Simulation setup directory holding entities/robots")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.natsURL, "nats-url", "", "NATS server URL")
	cmd.Flags().BoolVar(&flags.rgbdFallback, "rgbd-fallback", false, "Mount a default RGB-D camera at the laser frame when a robot has none")
	cmd.Flags().BoolVar(&flags.watchModels, "watch-models", false, "Log robot model file edits as they happen")

	cmd.AddCommand(modelsCmd(&flags))
	cmd.AddCommand(initConfigCmd(&flags))

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func modelsCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List robot kinds with a model file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, *flags)
			if err != nil {
				return err
			}
			root, err := robotconfig.NewLoader(cfg.Arena.Root, logger).ResolveRoot()
			if err != nil {
				return err
			}
			models, err := robotconfig.ListModels(root)
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func initConfigCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default user config if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.NewLoader(newLogger(flags.logLevel)).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads layered config and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, flags flagValues) (*config.Config, *slog.Logger, error) {
	cfg, err := config.NewLoader(newLogger(flags.logLevel)).Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, flags, cmd.Flags().Changed)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func applyFlags(cfg *config.Config, flags flagValues, changed func(string) bool) {
	if changed("arena-root") {
		cfg.Arena.Root = flags.arenaRoot
	}
	if changed("nats-url") {
		cfg.NATS.URL = flags.natsURL
	}
	if changed("rgbd-fallback") {
		cfg.Arena.RGBDFallback = flags.rgbdFallback
	}
	if changed("watch-models") {
		cfg.Bridge.WatchModels = flags.watchModels
	}
	if changed("log-level") {
		cfg.Log.Level = strings.ToLower(flags.logLevel)
	}
}

// bridgeConfig maps the binary config onto the component config.
func bridgeConfig(cfg *config.Config) entitybridge.Config {
	bc := entitybridge.DefaultConfig()
	bc.ArenaRoot = cfg.Arena.Root
	bc.RGBDFallback = cfg.Arena.RGBDFallback
	if cfg.Arena.MinWallThickness > 0 {
		bc.MinWallThickness = cfg.Arena.MinWallThickness
	}
	bc.StateBucket = cfg.Bridge.StateBucket
	if cfg.Bridge.EventPrefix != "" {
		bc.EventPrefix = cfg.Bridge.EventPrefix
	}
	bc.DisableEvents = cfg.Bridge.DisableEvents
	bc.WatchModels = cfg.Bridge.WatchModels
	return bc
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	natsClient, err := connectToNATS(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(ctx)

	metricsRegistry := metric.NewMetricsRegistry()

	bridge, err := newBridge(cfg, component.Dependencies{
		NATSClient:      natsClient,
		Logger:          logger,
		MetricsRegistry: metricsRegistry,
	})
	if err != nil {
		return err
	}
	if err := bridge.Initialize(); err != nil {
		return fmt.Errorf("initialize entity bridge: %w", err)
	}

	// Setup signal handling
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := bridge.Start(signalCtx); err != nil {
		return fmt.Errorf("start entity bridge: %w", err)
	}

	slog.Info("arena-unity ready",
		"version", Version,
		"arena_root", cfg.Arena.Root,
		"nats_url", cfg.NATS.URL)

	// Block until shutdown signal
	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := bridge.Stop(5 * time.Second); err != nil {
		slog.Warn("Entity bridge stop failed", "error", err)
	}
	return nil
}

// newBridge creates the entity bridge through the component registry, the
// same way framework-managed components are created.
func newBridge(cfg *config.Config, deps component.Dependencies) (component.LifecycleComponent, error) {
	componentRegistry := component.NewRegistry()
	if err := entitybridge.Register(componentRegistry); err != nil {
		return nil, fmt.Errorf("register entity-bridge: %w", err)
	}

	factory, ok := componentRegistry.GetFactory(entitybridge.ComponentName)
	if !ok {
		return nil, fmt.Errorf("entity-bridge factory not registered")
	}
	rawConfig, err := json.Marshal(bridgeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal entity-bridge config: %w", err)
	}

	comp, err := factory(rawConfig, deps)
	if err != nil {
		return nil, fmt.Errorf("create entity bridge: %w", err)
	}
	bridge, ok := comp.(component.LifecycleComponent)
	if !ok {
		return nil, fmt.Errorf("entity-bridge does not implement component lifecycle")
	}
	return bridge, nil
}

func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	natsURL := cfg.NATS.URL
	logger.Info("Connecting to NATS", "url", natsURL)

	client, err := natsclient.NewClient(natsURL,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, natsURL)
	}

	connCtx, cancel := context.WithTimeout(ctx, cfg.NATS.ConnectTimeout)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, natsURL)
	}

	logger.Info("Connected to NATS", "url", natsURL)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker run -p 4222:4222 nats -js

Or set NATS_URL environment variable to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
