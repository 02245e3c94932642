package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/constants"
	"github.com/thecodereport/tcdr/service"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [path...]",
		Short: "Build the coverage dashboard from coverlet reports",
		Long: `Build the coverage dashboard from coverlet JSON reports.

Paths may be report files or directories searched for coverage.json.
Several reports are merged into one dashboard. A pre-aggregated summary
(with "totals" and "thresholds") is accepted as a single file.

Examples:
  tcdr report
  tcdr report tests/
  tcdr report --format json coverage.json
  tcdr report --html --no-open
  tcdr report --filter Orders --max-depth 3`,
		RunE: runReport,
	}

	cmd.Flags().StringP("format", "f", "",
		"Output format: text, json, yaml, csv, html (default from config)")
	cmd.Flags().Bool("json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().Bool("html", false,
		"Output results as HTML (shorthand for --format html)")
	cmd.Flags().Bool("no-open", false,
		"Don't auto-open the HTML dashboard in a browser")
	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: "+constants.DefaultDashboardFile+" for HTML, stdout otherwise)")
	cmd.Flags().StringP("config", "c", "",
		"Path to config file")
	cmd.Flags().StringP("filter", "q", "",
		"Only show rows whose name or path contains this text")
	cmd.Flags().Int("max-depth", 0,
		"Limit the text explorer to this many levels (0 = all)")
	cmd.Flags().Int("hotspots", 0,
		"Maximum number of hotspots (default from config)")
	cmd.Flags().Float64("threshold", 0,
		"Line coverage target in percent")
	cmd.Flags().StringSlice("exclude", nil,
		"Additional gitignore-style patterns to skip during discovery")
	cmd.Flags().Bool("record", false,
		"Record a history snapshot for this report")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath, args)
	if err != nil {
		return err
	}

	override := domain.DashboardRequest{Paths: args, ConfigPath: configPath}

	format, _ := cmd.Flags().GetString("format")
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		format = string(domain.OutputFormatJSON)
	} else if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
		format = string(domain.OutputFormatHTML)
	}
	override.OutputFormat = domain.OutputFormat(format)

	override.OutputPath, _ = cmd.Flags().GetString("output")
	override.NoOpen, _ = cmd.Flags().GetBool("no-open")
	override.Filter, _ = cmd.Flags().GetString("filter")
	override.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	override.HotspotLimit, _ = cmd.Flags().GetInt("hotspots")
	override.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	override.RecordHistory, _ = cmd.Flags().GetBool("record")
	if cmd.Flags().Changed("threshold") {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		override.ThresholdTotal = &threshold
	}

	loader := service.NewConfigurationLoader()
	req := loader.MergeConfig(service.RequestFromConfig(cfg), &override)
	if err := loader.ValidateConfig(req); err != nil {
		return err
	}
	outFormat, err := domain.ParseOutputFormat(string(req.OutputFormat))
	if err != nil {
		return err
	}

	// Progress goes to stderr and only for human-readable output
	pm := service.NewProgressManager(outFormat == domain.OutputFormatText || outFormat == domain.OutputFormatHTML)
	defer pm.Close()

	store, err := openHistory(cfg, req.RecordHistory)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	uc, err := newDashboardUseCase(cfg, pm, store)
	if err != nil {
		return err
	}

	resp, err := uc.Execute(context.Background(), *req)
	if err != nil {
		return err
	}
	for _, w := range resp.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	formatter := service.NewOutputFormatter(
		service.WithFilter(req.Filter),
		service.WithMaxDepth(req.MaxDepth),
	)

	if outFormat == domain.OutputFormatHTML {
		htmlPath := req.OutputPath
		if htmlPath == "" {
			htmlPath = filepath.Join(cfg.Output.Directory, constants.DefaultDashboardFile)
		}
		if dir := filepath.Dir(htmlPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return domain.NewOutputError("failed to create output directory", err)
			}
		}

		file, err := os.Create(htmlPath)
		if err != nil {
			return domain.NewOutputError("failed to create HTML file", err)
		}
		defer file.Close()

		if err := formatter.Write(resp.Content, outFormat, file); err != nil {
			return err
		}

		absPath, _ := filepath.Abs(htmlPath)
		fmt.Fprintf(cmd.OutOrStdout(), "HTML dashboard saved to: %s\n", absPath)

		if !req.NoOpen && !service.IsSSH() {
			if err := service.OpenBrowser("file://" + absPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Could not open browser: %v\n", err)
			}
		}
		return nil
	}

	if req.OutputPath != "" {
		file, err := os.Create(req.OutputPath)
		if err != nil {
			return domain.NewOutputError("failed to create output file", err)
		}
		defer file.Close()
		return formatter.Write(resp.Content, outFormat, file)
	}

	return formatter.Write(resp.Content, outFormat, cmd.OutOrStdout())
}
