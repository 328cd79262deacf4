package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classlink/internal/core/config"
	"classlink/internal/data/ingest"
	"classlink/internal/data/store"
	"classlink/internal/engine/hierarchy"
	"classlink/internal/engine/introspect"
	"classlink/internal/engine/registry"
	"classlink/internal/engine/resolve"
	"classlink/internal/shared/observability"
	"classlink/internal/shared/util"
	"classlink/internal/watcher"
)

type App struct {
	Config *config.Config
	Intro  introspect.Introspector
	DB     *store.Store

	filter  *ingest.Filter
	watcher *watcher.Watcher
}

// RunResult bundles everything one analysis produced.
type RunResult struct {
	Model    *resolve.Model
	Summary  ingest.Summary
	Classes  int
	Added    int
	Duration time.Duration
}

func NewApp(cfg *config.Config) (*App, error) {
	filter, err := ingest.NewFilter(cfg.Input.Include, cfg.Input.Exclude)
	if err != nil {
		return nil, err
	}

	intro := introspect.Unavailable()
	if strings.TrimSpace(cfg.Introspection.Table) != "" {
		table, err := introspect.LoadTableFile(cfg.Introspection.Table)
		if err != nil {
			return nil, err
		}
		intro = table
	}

	app := &App{
		Config: cfg,
		Intro:  intro,
		filter: filter,
	}

	if cfg.DB.Enabled {
		db, err := store.Open(cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		app.DB = db
	}

	return app, nil
}

// Run loads the dump, completes the hierarchy, resolves every record and
// persists the outcome when a run store is configured.
func (a *App) Run(ctx context.Context) (*RunResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyse")
	defer span.End()

	start := time.Now()

	reg := registry.New(a.Intro)
	if a.Config.Introspection.Rate > 0 {
		reg.SetLoadLimiter(util.NewLimiter(a.Config.Introspection.Rate, a.Config.Introspection.Burst))
	}

	records := resolve.NewStore()
	loader := ingest.NewLoader(reg, records, a.filter)

	sum, err := loader.LoadFile(a.Config.Input.Dump)
	if err != nil {
		return nil, err
	}

	completeStart := time.Now()
	added := hierarchy.NewCompleter(reg).Complete(ctx)
	observability.PhaseDuration.WithLabelValues("complete").Observe(time.Since(completeStart).Seconds())
	reg.Freeze()

	model, err := resolve.NewPipeline(reg, a.Intro, a.Config.Resolve.Workers).Resolve(ctx, records)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Model:    model,
		Summary:  sum,
		Classes:  reg.Size(),
		Added:    added,
		Duration: time.Since(start),
	}

	if a.DB != nil {
		stats := model.Stats()
		runID, err := a.DB.SaveRun(store.Run{
			ProjectKey:    a.Config.Project,
			ClassCount:    result.Classes,
			RecordCount:   records.Size(),
			ResolvedCount: stats.Resolved,
			FallbackCount: stats.Fallback,
			DroppedCount:  stats.Dropped,
			Duration:      result.Duration,
		}, model.Warnings())
		if err != nil {
			slog.Warn("failed to persist run", "error", err)
		} else {
			slog.Debug("run persisted", "run_id", runID)
		}
	}

	return result, nil
}

// StartWatcher reruns the analysis whenever the dump (or the classpath
// index) is rewritten.
func (a *App) StartWatcher(ctx context.Context) error {
	files := []string{a.Config.Input.Dump}
	if strings.TrimSpace(a.Config.Introspection.Table) != "" {
		files = append(files, a.Config.Introspection.Table)
	}

	w, err := watcher.New(a.Config.Watch.Debounce, files, func(paths []string) {
		slog.Info("scanner artifacts changed, re-analysing", "paths", paths)
		result, err := a.Run(ctx)
		if err != nil {
			slog.Error("analysis failed", "error", err)
			return
		}
		a.PrintSummary(result)
	})
	if err != nil {
		return err
	}
	a.watcher = w
	w.Start()
	return nil
}

// StartMetricsServer exposes the Prometheus registry over HTTP.
func (a *App) StartMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(a.Config.Metrics.Listen, mux); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	slog.Info("metrics server listening", "addr", a.Config.Metrics.Listen)
}

func (a *App) PrintSummary(result *RunResult) {
	stats := result.Model.Stats()

	fmt.Printf("Resolution Summary\n")
	fmt.Printf("==================\n")
	fmt.Printf("Classes registered:   %d (%d scanned, %d completed)\n",
		result.Classes, result.Summary.Classes, result.Added)
	fmt.Printf("Records resolved:     %d\n", stats.Resolved)
	fmt.Printf("  via synthesis:      %d\n", stats.Fallback)
	fmt.Printf("Records dropped:      %d\n", stats.Dropped)
	fmt.Printf("Duration:             %s\n", result.Duration.Round(time.Millisecond))

	warnings := result.Model.Warnings()
	if len(warnings) == 0 {
		return
	}

	fmt.Printf("\nWarnings (%d)\n", len(warnings))
	byTarget := make(map[string]int)
	for _, w := range warnings {
		byTarget[w.Target]++
	}
	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, t := range targets {
		fmt.Printf("- %s (%d)\n", t, byTarget[t])
	}
}

func (a *App) Close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			slog.Warn("failed to close run store", "error", err)
		}
	}
}
