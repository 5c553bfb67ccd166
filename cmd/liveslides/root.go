package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/liveslides"
	"github.com/aretw0/liveslides/internal/cli"
	"github.com/aretw0/liveslides/internal/config"
	"github.com/aretw0/liveslides/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "liveslides",
	Short: "LiveSlides runs interactive presentations",
	Long: `LiveSlides keeps every participant of a presentation on the presenter's slide,
runs the actions behind their answers and tallies the results live.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default $"+config.EnvConfigFile+")")
	rootCmd.PersistentFlags().String("store", "", "Document store backend: memory or redis")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL (redis://host:port/db)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "Shorthand for --log-level=debug")
}

// loadConfig layers the persistent flags over the koanf configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store = v
	}
	if v, _ := cmd.Flags().GetString("redis-url"); v != "" {
		cfg.RedisURL = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}

// newApp loads the configuration and wires the application.
// Terminal clients pass quiet to keep info logs off the screen.
func newApp(ctx context.Context, cfg *config.Config, quiet bool) (*liveslides.App, error) {
	logger := newLogger(cfg)
	opts := []liveslides.Option{liveslides.WithLogger(logger)}
	if quiet && cfg.LogLevel != "debug" {
		opts = []liveslides.Option{liveslides.WithLogger(logging.NewNop())}
	}
	if cfg.LogLevel == "debug" {
		opts = append(opts, liveslides.WithLifecycleHooks(cli.DebugHooks(logger)))
	}
	return liveslides.New(ctx, cfg, opts...)
}
