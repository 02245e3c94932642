package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/thecodereport/tcdr/domain"
	servicepkg "github.com/thecodereport/tcdr/service"
)

// ServeConfig configures the dashboard server
type ServeConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Request selects the reports rebuilt on every reload
	Request domain.DashboardRequest

	// RunFirst runs the tests once before the first load
	RunFirst bool

	// PageSize is the default page size of the explorer endpoint
	PageSize int
}

// ServeUseCase wires the dashboard use case and the test runner into an HTTP server
type ServeUseCase struct {
	dashboard *DashboardUseCase
	runner    domain.TestRunner
	logger    *slog.Logger
}

// NewServeUseCase creates a serve use case. A nil runner disables run-all.
func NewServeUseCase(dashboard *DashboardUseCase, runner domain.TestRunner, logger *slog.Logger) *ServeUseCase {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ServeUseCase{dashboard: dashboard, runner: runner, logger: logger}
}

// NewServer returns a server whose source rebuilds the dashboard for req
func (uc *ServeUseCase) NewServer(req domain.DashboardRequest) *servicepkg.DashboardServer {
	source := func(ctx context.Context) (*domain.DashboardContent, error) {
		resp, err := uc.dashboard.Execute(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, w := range resp.Warnings {
			uc.logger.Warn(w)
		}
		return resp.Content, nil
	}
	return servicepkg.NewDashboardServer(source, uc.runner, uc.logger)
}

// Execute loads the dashboard and serves it until ctx is cancelled. A failed
// first load is logged and served as an error until the next reload.
func (uc *ServeUseCase) Execute(ctx context.Context, cfg ServeConfig) error {
	server := uc.NewServer(cfg.Request)
	server.SetPageSize(cfg.PageSize)

	if cfg.RunFirst && uc.runner != nil {
		result := domain.RunResultFromResponse(uc.runner.Run(ctx), nil)
		uc.logger.Info("initial test run finished", "state", result.State, "message", result.Message)
	}

	if err := server.Reload(ctx); err != nil {
		uc.logger.Warn("serving without coverage", "error", err)
	}

	uc.logger.Info("dashboard server listening", "addr", cfg.Addr)
	return server.ListenAndServe(ctx, cfg.Addr, cfg.ReadTimeout, cfg.WriteTimeout)
}

// RunOutcome is the result of running the tests and rebuilding the dashboard
type RunOutcome struct {
	Result   domain.RunResult
	Response *domain.RunAllResponse
	Content  *domain.DashboardContent
	BuildErr error
}

// RunUseCase runs the test command and rebuilds the dashboard afterwards
type RunUseCase struct {
	dashboard *DashboardUseCase
	runner    domain.TestRunner
}

// NewRunUseCase creates a run use case
func NewRunUseCase(dashboard *DashboardUseCase, runner domain.TestRunner) *RunUseCase {
	return &RunUseCase{dashboard: dashboard, runner: runner}
}

// Execute runs the tests, then builds the dashboard even when they failed,
// since failing suites still write coverage
func (uc *RunUseCase) Execute(ctx context.Context, req domain.DashboardRequest) *RunOutcome {
	resp := uc.runner.Run(ctx)
	outcome := &RunOutcome{
		Result:   domain.RunResultFromResponse(resp, nil),
		Response: resp,
	}

	built, err := uc.dashboard.Execute(ctx, req)
	if err != nil {
		outcome.BuildErr = err
		return outcome
	}
	outcome.Content = built.Content
	return outcome
}
