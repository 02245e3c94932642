package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/service"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [path...]",
		Short: "Export the coverage explorer as CSV",
		Long: `Export every explorer row, depth-first, as CSV.

Not-applicable percentages are written as empty fields.

Examples:
  tcdr export > coverage.csv
  tcdr export -o coverage.csv --filter Orders tests/`,
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringP("filter", "q", "", "Only export rows whose name or path contains this text")
	cmd.Flags().StringP("config", "c", "", "Path to config file")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputPath, _ := cmd.Flags().GetString("output")
	filter, _ := cmd.Flags().GetString("filter")

	cfg, err := loadConfig(configPath, args)
	if err != nil {
		return err
	}

	pm := service.NewProgressManager(outputPath != "")
	defer pm.Close()

	uc, err := newDashboardUseCase(cfg, pm, nil)
	if err != nil {
		return err
	}
	resp, err := uc.Execute(context.Background(), requestFromArgs(cfg, args))
	if err != nil {
		return err
	}

	formatter := service.NewOutputFormatter(service.WithFilter(filter))
	if outputPath == "" {
		return formatter.Write(resp.Content, domain.OutputFormatCSV, cmd.OutOrStdout())
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return domain.NewOutputError("failed to create CSV file", err)
	}
	defer file.Close()

	if err := formatter.Write(resp.Content, domain.OutputFormatCSV, file); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rows to %s\n", len(service.Flatten(service.FilterRows(resp.Content.CoverageRows, filter))), outputPath)
	return nil
}
