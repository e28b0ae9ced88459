package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/db"
)

func newHistoryCmd() *cobra.Command {
	var (
		flags commonFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded smoke runs",
		Long:  "Lists recent smoke runs from the history store, or shows one run in detail when given its id.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, flags, limit, args)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "groundcheck.yaml", "path to defaults file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "load environment variables from this file first")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}

func runHistory(cmd *cobra.Command, flags commonFlags, limit int, args []string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	gdb, err := db.Open(cfg.History)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		run, err := db.GetRun(gdb, uint(id))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %d  %s  trigger=%s  model=%s  %s\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Trigger, run.Model, passFail(run.Passed))
		for _, s := range run.Scenarios {
			if s.Skipped {
				fmt.Fprintf(out, "  %-16s SKIP\n", s.Name)
				continue
			}
			fmt.Fprintf(out, "  %-16s %s (%s, %d attempts, %dms)\n",
				s.Name, passFail(s.Passed), s.Classification, s.Attempts, s.DurationMs)
			if s.Text != "" {
				fmt.Fprintf(out, "    %s\n", truncate(s.Text, 200))
			}
			var citations []string
			if s.Citations != "" {
				_ = json.Unmarshal([]byte(s.Citations), &citations)
			}
			for _, u := range citations {
				fmt.Fprintf(out, "    - %s\n", u)
			}
			if s.Error != "" {
				fmt.Fprintf(out, "    error: %s\n", s.Error)
			}
		}
		return nil
	}

	runs, err := db.RecentRuns(gdb, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tTRIGGER\tMODEL\tRESULT")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04"), run.Trigger, run.Model, passFail(run.Passed))
	}
	return w.Flush()
}
