package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/db"
	"github.com/groundcheck/groundcheck/internal/foundry"
	"github.com/groundcheck/groundcheck/internal/notify"
	"github.com/groundcheck/groundcheck/internal/smoke"
	"github.com/groundcheck/groundcheck/internal/verify"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func newWatchCmd() *cobra.Command {
	var (
		flags    commonFlags
		schedule string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the smoke suite on a schedule",
		Long:  "Keeps running, executing the smoke suite on a cron schedule and recording each run in the history store. Use --now to also run immediately on startup.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchCmd(cmd, flags, schedule, runNow)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "groundcheck.yaml", "path to defaults file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "load environment variables from this file first")
	cmd.Flags().StringVar(&schedule, "schedule", "0 * * * *", "5-field cron expression")
	cmd.Flags().BoolVar(&runNow, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}

func runWatchCmd(cmd *cobra.Command, flags commonFlags, schedule string, runNow bool) error {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSmoke(); err != nil {
		return err
	}

	gdb, err := db.Open(cfg.History)
	if err != nil {
		return err
	}
	adapters, err := newAdapters(cfg.Notify)
	if err != nil {
		return err
	}
	defer func() {
		for _, a := range adapters {
			a.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching on schedule %q... (Ctrl+C to stop)\n", schedule)

	runOnce := func() {
		client, endpoint, err := newFoundryClient(ctx, cfg)
		if err != nil {
			fmt.Fprintf(out, "[%s] setup error: %v\n", time.Now().Format("15:04:05"), err)
			return
		}

		connectionRef := ""
		if !cfg.SkipGrounding {
			connectionRef, err = foundry.ResolveBingConnection(ctx, client, cfg.Bing, cmd.ErrOrStderr())
			if err != nil {
				fmt.Fprintf(out, "[%s] connection error: %v\n", time.Now().Format("15:04:05"), err)
				return
			}
		}
		model, err := foundry.ChooseDeployment(ctx, client, cfg.Model)
		if err != nil {
			fmt.Fprintf(out, "[%s] deployment error: %v\n", time.Now().Format("15:04:05"), err)
			return
		}

		suite := &smoke.Suite{Client: client, Verifier: verify.New(client, cfg.Poll), Out: out}
		report := suite.Run(ctx, smoke.Options{
			Endpoint:      endpoint,
			Model:         model,
			ConnectionRef: connectionRef,
			SkipGrounding: cfg.SkipGrounding,
		})

		if _, err := db.SaveReport(gdb, "cron", report); err != nil {
			fmt.Fprintf(out, "WARNING: history not recorded: %v\n", err)
		}
		if len(adapters) > 0 {
			if err := notify.Notify(ctx, adapters, notify.FormatReport(report)); err != nil {
				fmt.Fprintf(out, "WARNING: %v\n", err)
			}
		}
	}

	if runNow {
		runOnce()
	}

	for {
		next := sched.Next(time.Now())
		fmt.Fprintf(out, "next run at %s\n", next.Format(time.RFC3339))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			runOnce()
		}
	}
}
