package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"classlink/internal/core/config"
	"classlink/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./classlink.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single analysis and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("classlink v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// A bare dump path as the only argument skips the config file.
	var cfg *config.Config
	var err error
	if flag.NArg() == 1 {
		cfg = config.Default(flag.Arg(0))
	} else {
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.SetupTracing(ctx, cfg.Tracing.Endpoint)
		if err != nil {
			slog.Error("failed to set up tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if cfg.Metrics.Enabled {
		app.StartMetricsServer()
	}

	result, err := app.Run(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}
	app.PrintSummary(result)

	if *once || !cfg.Watch.Enabled {
		return
	}

	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	select {}
}
