package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/dashboard"
	"github.com/groundcheck/groundcheck/internal/db"
)

func newDashboardCmd() *cobra.Command {
	var (
		flags commonFlags
		port  int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the read-only web dashboard",
		Long:  "Launches a local web view of smoke run history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, flags, port)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "groundcheck.yaml", "path to defaults file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "load environment variables from this file first")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}

func runDashboard(cmd *cobra.Command, flags commonFlags, port int) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	gdb, err := db.Open(cfg.History)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:   gdb,
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}
