package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/config"
	"github.com/groundcheck/groundcheck/internal/db"
	"github.com/groundcheck/groundcheck/internal/foundry"
	"github.com/groundcheck/groundcheck/internal/notify"
	"github.com/groundcheck/groundcheck/internal/smoke"
	"github.com/groundcheck/groundcheck/internal/verify"
)

func newSmokeCmd() *cobra.Command {
	var (
		flags         commonFlags
		skipGrounding bool
		noHistory     bool
		noNotify      bool
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the agent smoke suite",
		Long:  "Creates a plain agent and a Bing-grounded agent, runs one prompt through each, and verifies the runs complete with usable answers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSmoke(ctx, cmd, flags, skipGrounding, noHistory, noNotify)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "groundcheck.yaml", "path to defaults file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "load environment variables from this file first")
	cmd.Flags().BoolVar(&skipGrounding, "skip-grounding", false, "skip the Bing grounding scenario")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the run in the history store")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "do not post chat notifications")
	return cmd
}

func runSmoke(ctx context.Context, cmd *cobra.Command, flags commonFlags, skipGrounding, noHistory, noNotify bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if skipGrounding {
		cfg.SkipGrounding = true
	}
	if err := cfg.ValidateSmoke(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	client, endpoint, err := newFoundryClient(ctx, cfg)
	if err != nil {
		return err
	}

	connectionRef := ""
	if !cfg.SkipGrounding {
		connectionRef, err = foundry.ResolveBingConnection(ctx, client, cfg.Bing, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	model, err := foundry.ChooseDeployment(ctx, client, cfg.Model)
	if err != nil {
		return err
	}

	suite := &smoke.Suite{
		Client:   client,
		Verifier: verify.New(client, cfg.Poll),
		Out:      out,
	}
	report := suite.Run(ctx, smoke.Options{
		Endpoint:      endpoint,
		Model:         model,
		ConnectionRef: connectionRef,
		SkipGrounding: cfg.SkipGrounding,
	})

	if !noHistory {
		if err := recordReport(cfg.History, report); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: history not recorded: %v\n", err)
		}
	}
	if !noNotify {
		if err := sendNotifications(ctx, cfg.Notify, report); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: %v\n", err)
		}
	}

	fmt.Fprintln(out)
	for _, s := range report.Scenarios {
		if s.Skipped {
			fmt.Fprintf(out, "%-16s SKIP\n", s.Name)
			continue
		}
		fmt.Fprintf(out, "%-16s %s (%s, %d attempts)\n", s.Name, passFail(s.Passed), s.Classification, s.Attempts)
	}
	if !report.Passed() {
		return fmt.Errorf("smoke suite failed")
	}
	return nil
}

func recordReport(cfg config.HistoryConfig, report *smoke.Report) error {
	gdb, err := db.Open(cfg)
	if err != nil {
		return err
	}
	_, err = db.SaveReport(gdb, "manual", report)
	return err
}

func sendNotifications(ctx context.Context, cfg config.NotifyConfig, report *smoke.Report) error {
	adapters, err := newAdapters(cfg)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return nil
	}
	defer func() {
		for _, a := range adapters {
			a.Close()
		}
	}()
	return notify.Notify(ctx, adapters, notify.FormatReport(report))
}
