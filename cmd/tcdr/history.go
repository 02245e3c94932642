package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded coverage snapshots",
		Long: `Show coverage snapshots recorded by "tcdr report --record", "tcdr run --record"
or with history.enabled in the config file.

Examples:
  tcdr history
  tcdr history --repo Shop --limit 10
  tcdr history --json`,
		RunE: runHistory,
	}

	cmd.Flags().String("repo", "", "Only show snapshots for this repository")
	cmd.Flags().IntP("limit", "n", 0, "Number of snapshots to show (default from config)")
	cmd.Flags().Bool("json", false, "Output snapshots as JSON")
	cmd.Flags().StringP("config", "c", "", "Path to config file")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	repo, _ := cmd.Flags().GetString("repo")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(configPath, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("limit") {
		limit = cfg.History.Limit
	}

	store, err := openHistory(cfg, true)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.Recent(context.Background(), repo, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if asJSON {
		return service.WriteJSON(cmd.OutOrStdout(), snaps)
	}

	if len(snaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshots recorded yet. Run 'tcdr report --record' to add one.")
		return nil
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Recorded", "Repository", "Branch", "Lines", "Branches", "Methods", "Full methods"})
	for _, s := range snaps {
		tbl.AppendRow(table.Row{
			s.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			s.RepoName,
			s.Branch,
			s.LinePct.String(),
			s.BranchPct.String(),
			s.MethodPct.String(),
			s.FullMethodPct.String(),
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d snapshots", len(snaps))})
	tbl.Render()
	return nil
}
