package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/internal/version"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tcdr",
		Short: "tcdr - test coverage dashboard for .NET",
		Long: `tcdr turns coverlet JSON reports into a browsable coverage dashboard.
It summarizes line, branch and method coverage, lists hotspots, runs the
test suite on demand and gates coverage in CI.`,
		Version: Version,
	}

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Handle custom exit codes from check and run
		var exitErr *CheckExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			// Silently exit with the specified code (output already printed)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "tcdr version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
