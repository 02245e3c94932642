package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/thecodereport/tcdr/app"
	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/config"
	"github.com/thecodereport/tcdr/internal/coverage"
	"github.com/thecodereport/tcdr/internal/history"
	"github.com/thecodereport/tcdr/service"
)

// firstPath is the discovery anchor for configuration files
func firstPath(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// loadConfig loads configPath, or discovers one from the first argument
func loadConfig(configPath string, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(configPath, firstPath(args))
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// openHistory opens the snapshot store when history is enabled or forced.
// The returned store is nil when history is off.
func openHistory(cfg *config.Config, force bool) (domain.HistoryStore, error) {
	if !cfg.History.Enabled && !force {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to open history at %s", cfg.History.Path), err)
	}
	return store, nil
}

// newDashboardUseCase wires the dashboard use case from configuration.
// Report parsing shows progress on pm.
func newDashboardUseCase(cfg *config.Config, pm domain.ProgressManager, store domain.HistoryStore) (*app.DashboardUseCase, error) {
	workers := cfg.Performance.MaxWorkers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	executor := service.NewParallelExecutorWithProgress(&cfg.Performance, pm, "Parsing coverage reports")
	svc := service.NewDashboardService(
		coverage.Options{HotspotLimit: cfg.Dashboard.HotspotLimit},
		service.WithWorkers(workers),
		service.WithReportLoader(service.NewReportLoader(executor)),
	)

	builder := app.NewDashboardUseCaseBuilder().WithService(svc)
	if store != nil {
		builder = builder.WithHistory(store)
	}
	return builder.Build()
}

// requestFromArgs merges configuration with positional paths
func requestFromArgs(cfg *config.Config, args []string) domain.DashboardRequest {
	req := *service.RequestFromConfig(cfg)
	if len(args) > 0 {
		req.Paths = args
	}
	return req
}

// newLogger creates the server logger in text or json format
func newLogger(format string, level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", format)
	}
}
