package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/app"
	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/service"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Run the tests and summarize the fresh coverage",
		Long: `Run the configured test command (runner.command), then rebuild the
dashboard from the report it wrote.

Exits with 1 when the tests fail.

Examples:
  tcdr run
  tcdr run --json
  tcdr run --record`,
		RunE:          runRun,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("json", false, "Print the run response as JSON")
	cmd.Flags().BoolP("verbose", "v", false, "Print the test output")
	cmd.Flags().Bool("record", false, "Record a history snapshot")
	cmd.Flags().StringP("config", "c", "", "Path to config file")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	asJSON, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	record, _ := cmd.Flags().GetBool("record")

	cfg, err := loadConfig(configPath, args)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	store, err := openHistory(cfg, record)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}
	if store != nil {
		defer store.Close()
	}

	pm := service.NewProgressManager(!asJSON)
	defer pm.Close()

	dashboard, err := newDashboardUseCase(cfg, pm, store)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	runner := service.NewTestRunner(&cfg.Runner)
	if !asJSON {
		fmt.Fprintf(cmd.ErrOrStderr(), "Running %s\n", runner.CommandLine())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req := requestFromArgs(cfg, args)
	req.RecordHistory = req.RecordHistory || record
	outcome := app.NewRunUseCase(dashboard, runner).Execute(ctx, req)

	if asJSON {
		if err := service.WriteJSON(cmd.OutOrStdout(), outcome.Response); err != nil {
			return &CheckExitError{Code: 2, Message: err.Error()}
		}
	} else {
		printRunOutcome(cmd.OutOrStdout(), outcome, verbose)
	}

	if outcome.Result.State != domain.RunStateSuccess {
		return &CheckExitError{Code: 1}
	}
	return nil
}

func printRunOutcome(w io.Writer, outcome *app.RunOutcome, verbose bool) {
	r := outcome.Result
	if r.State == domain.RunStateSuccess {
		fmt.Fprintf(w, "%s %s\n", color.GreenString("✔"), r.Message)
	} else {
		fmt.Fprintf(w, "%s %s\n", color.RedString("✘"), r.Message)
	}

	if verbose {
		if r.Stdout != "" {
			fmt.Fprintf(w, "\n%s\n", r.Stdout)
		}
		if r.Stderr != "" {
			fmt.Fprintf(w, "\n%s\n", r.Stderr)
		}
	}

	if outcome.BuildErr != nil {
		fmt.Fprintf(w, "%s %v\n", color.YellowString("Coverage unavailable:"), outcome.BuildErr)
		return
	}

	t := outcome.Content.Overview.Totals
	fmt.Fprintf(w, "Coverage for %s: lines %s, branches %s, methods %s\n",
		outcome.Content.RepoName, t.Lines.Pct, t.Branches.Pct, t.Methods.Pct)
}
