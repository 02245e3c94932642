package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/app"
	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/service"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Fast coverage gate for CI/CD pipelines",
		Long: `Compare coverage against thresholds for CI/CD integration.

The line threshold defaults to dashboard.threshold_total from the config
file, or the thresholds carried by a pre-aggregated summary.

Exit codes:
  0 - All checks pass
  1 - Coverage threshold(s) violated
  2 - Check error (report not found, parse error, etc.)

Examples:
  # Use thresholds from tcdr.yaml
  tcdr check

  # Explicit gates
  tcdr check --min-line 80 --min-branch 60 tests/

  # Fail when any method is below full coverage
  tcdr check --max-hotspots 0

  # JSON output for machine parsing
  tcdr check --json`,
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().Float64("min-line", 0, "Minimum line coverage in percent")
	cmd.Flags().Float64("min-branch", 0, "Minimum branch coverage in percent")
	cmd.Flags().Float64("min-method", 0, "Minimum method coverage in percent")
	cmd.Flags().Int("max-hotspots", 0, "Maximum number of methods below full coverage")
	cmd.Flags().BoolP("verbose", "v", false, "Show detailed output")
	cmd.Flags().Bool("json", false, "Output results as JSON")
	cmd.Flags().StringP("config", "c", "", "Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	asJSON, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := loadConfig(configPath, args)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	base := requestFromArgs(cfg, args)
	req := domain.CheckRequest{
		Paths:           base.Paths,
		ConfigPath:      configPath,
		HotspotLimit:    cfg.Dashboard.HotspotLimit,
		Recursive:       true,
		IncludePatterns: base.IncludePatterns,
		ExcludePattern:  base.ExcludePatterns,
	}
	if cmd.Flags().Changed("min-line") {
		v, _ := cmd.Flags().GetFloat64("min-line")
		req.MinLinePct = &v
	} else {
		req.MinLinePct = cfg.Dashboard.ThresholdTotal
	}
	if cmd.Flags().Changed("min-branch") {
		v, _ := cmd.Flags().GetFloat64("min-branch")
		req.MinBranchPct = &v
	}
	if cmd.Flags().Changed("min-method") {
		v, _ := cmd.Flags().GetFloat64("min-method")
		req.MinMethodPct = &v
	}
	if cmd.Flags().Changed("max-hotspots") {
		v, _ := cmd.Flags().GetInt("max-hotspots")
		req.MaxHotspots = &v
	}

	// Progress auto-disables for JSON output and non-TTY/CI
	pm := service.NewProgressManager(!asJSON)
	defer pm.Close()

	dashboard, err := newDashboardUseCase(cfg, pm, nil)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	result, err := app.NewCheckUseCase(dashboard).Execute(context.Background(), req)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	if asJSON {
		return outputCheckJSON(cmd.OutOrStdout(), result)
	}
	return outputCheckText(cmd.OutOrStdout(), result, verbose)
}

func outputCheckText(w io.Writer, result *domain.CheckResult, verbose bool) error {
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	s := result.Summary
	if result.Passed {
		fmt.Fprintf(w, "%s All coverage checks passed\n", pass("PASS:"))
		if verbose {
			fmt.Fprintf(w, "  Reports: %d\n", s.FilesAnalyzed)
			fmt.Fprintf(w, "  Lines: %s  Branches: %s  Methods: %s\n", s.LinePct, s.BranchPct, s.MethodPct)
			fmt.Fprintf(w, "  Hotspots: %d\n", s.Hotspots)
			fmt.Fprintf(w, "  Duration: %dms\n", result.Duration)
		}
		return nil
	}

	fmt.Fprintf(w, "%s Coverage check failed\n", fail("FAIL:"))
	fmt.Fprintf(w, "  Violations: %d\n", s.TotalViolations)

	for _, v := range result.Violations {
		if v.Severity == "warning" {
			if !verbose {
				continue
			}
			fmt.Fprintf(w, "  [%s] %s: %s\n", warn("WARN"), v.Category, v.Message)
		} else {
			fmt.Fprintf(w, "  [%s] %s: %s\n", fail("ERROR"), v.Category, v.Message)
		}
		if verbose && v.Location != "" {
			fmt.Fprintf(w, "         at %s\n", v.Location)
		}
	}

	if verbose {
		fmt.Fprintf(w, "\nSummary:\n")
		fmt.Fprintf(w, "  Reports: %d\n", s.FilesAnalyzed)
		fmt.Fprintf(w, "  Lines: %s  Branches: %s  Methods: %s\n", s.LinePct, s.BranchPct, s.MethodPct)
		fmt.Fprintf(w, "  Duration: %dms\n", result.Duration)
	}

	return &CheckExitError{Code: 1, Message: ""}
}

func outputCheckJSON(w io.Writer, result *domain.CheckResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to encode JSON: %v", err)}
	}

	if !result.Passed {
		return &CheckExitError{Code: 1, Message: ""}
	}
	return nil
}
