package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/arm"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gk",
		Short: "groundcheck — Foundry agent smoke tests",
		Long:  "groundcheck exercises an AI Foundry project end to end: agent runs with and without Bing grounding, plus provisioning for the grounding connection.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSmokeCmd())
	cmd.AddCommand(newProvisionCmd())
	cmd.AddCommand(newConnectionsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gk %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// execute runs the root command and maps errors to process exit codes.
// Provisioning step failures carry their own codes; everything else is 1.
func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		var step *arm.StepError
		if errors.As(err, &step) {
			return step.ExitCode
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
