package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/app"
	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/constants"
	"github.com/thecodereport/tcdr/service"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [path...]",
		Short: "Serve the live coverage dashboard",
		Long: `Serve the coverage dashboard over HTTP.

The page offers a Run All button that runs the configured test command
(runner.command) and reloads the dashboard from the fresh report.

Endpoints:
  GET  /              dashboard page
  GET  /dashboard     dashboard content as JSON
  POST /run           run the tests, then reload
  GET  /coverage.csv  explorer export (?q= filters rows)
  GET  /healthz       liveness
  GET  /readyz        ready once a report is loaded
  GET  /metrics       Prometheus metrics

Examples:
  tcdr serve
  tcdr serve --port 9000 tests/
  tcdr serve --run --open
  tcdr serve --no-run-all --log-format json`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Interface to listen on (default from config)")
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().Bool("run", false, "Run the tests once before serving")
	cmd.Flags().Bool("no-run-all", false, "Disable the run trigger")
	cmd.Flags().Bool("open", false, "Open the dashboard in a browser")
	cmd.Flags().Bool("record", false, "Record a history snapshot on every reload")
	cmd.Flags().String("log-format", "text", "Log format: text, json")
	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringP("config", "c", "", "Path to config file")

	return cmd
}

// validatePort rejects ports outside 1-65535
func validatePort(port int) error {
	if port < constants.MinPort || port > constants.MaxPort {
		return fmt.Errorf("invalid port %d: must be between %d and %d", port, constants.MinPort, constants.MaxPort)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath, args)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if err := validatePort(cfg.Server.Port); err != nil {
		return err
	}

	logFormat, _ := cmd.Flags().GetString("log-format")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(logFormat, logLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	record, _ := cmd.Flags().GetBool("record")
	store, err := openHistory(cfg, record)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// The server never draws progress bars
	dashboard, err := newDashboardUseCase(cfg, service.NewProgressManager(false), store)
	if err != nil {
		return err
	}

	var runner domain.TestRunner
	if noRun, _ := cmd.Flags().GetBool("no-run-all"); !noRun {
		testRunner := service.NewTestRunner(&cfg.Runner)
		logger.Info("run-all enabled", "command", testRunner.CommandLine())
		runner = testRunner
	}

	req := requestFromArgs(cfg, args)
	req.RecordHistory = req.RecordHistory || record

	runFirst, _ := cmd.Flags().GetBool("run")
	serveCfg := app.ServeConfig{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		Request:      req,
		RunFirst:     runFirst,
		PageSize:     cfg.Dashboard.PageSize,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if open, _ := cmd.Flags().GetBool("open"); open && !service.IsSSH() {
		url := "http://" + serveCfg.Addr + "/"
		go func() {
			// Give the listener a moment to come up
			time.Sleep(500 * time.Millisecond)
			if err := service.OpenBrowser(url); err != nil {
				logger.Warn("could not open browser", "error", err)
			}
		}()
	}

	return app.NewServeUseCase(dashboard, runner, logger).Execute(ctx, serveCfg)
}
